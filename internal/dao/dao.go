// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/model"
	"github.com/kbaselabs/knowledge-sync-service/pkg/fileurl"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type         string `yaml:"type"`
	Path         string `yaml:"path"`
	UserName     string `yaml:"user-name"`
	Password     string `yaml:"password"`
	Host         string `yaml:"host"`
	Name         string `yaml:"name"`
	Charset      string `yaml:"charset"`
	ParseTime    bool   `yaml:"parse-time"`
	TablePrefix  string `yaml:"table-prefix"`
	MaxIdleConns int    `yaml:"max-idle-conns"`
	MaxOpenConns int    `yaml:"max-open-conns"`
}

// Dao 聚合所有数据访问入口
type Dao struct {
	db *gorm.DB
}

// New 创建 Dao 实例
func New(db *gorm.DB) *Dao {
	return &Dao{db: db}
}

// DB 返回底层 gorm 连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// NewDBEngine 初始化 GORM 连接并完成迁移
func NewDBEngine(c DatabaseConfig, runMode string) (*gorm.DB, error) {
	dialector, err := newDialector(c)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}

	if runMode == "debug" {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Minute * 10)

	if err := model.AutoMigrateAll(db); err != nil {
		return nil, err
	}

	return db, nil
}

func newDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host,
			c.UserName,
			c.Password,
			c.Name,
		)), nil
	case "sqlite":
		dir := filepath.Dir(c.Path)
		if !fileurl.IsExist(dir) {
			_ = fileurl.CreatePath(c.Path, os.ModePerm)
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", c.Type)
}

// txRepositories 事务内的数据访问集合
type txRepositories struct {
	dao *Dao
}

func (t *txRepositories) Devices() domain.DeviceRepository {
	return NewDeviceRepository(t.dao)
}

func (t *txRepositories) Changes() domain.ChangeRepository {
	return NewChangeRepository(t.dao)
}

func (t *txRepositories) Conflicts() domain.ConflictRepository {
	return NewConflictRepository(t.dao)
}

func (t *txRepositories) Entities() domain.EntityStore {
	return NewEntityStore(t.dao)
}

// Transaction 在单个数据库事务内执行 fn
func (d *Dao) Transaction(ctx context.Context, fn func(tx domain.TxRepositories) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{dao: New(tx)})
	})
}

// 确保 Dao 实现了 domain.TxRunner 接口
var _ domain.TxRunner = (*Dao)(nil)
var _ domain.TxRepositories = (*txRepositories)(nil)

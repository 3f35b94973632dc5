package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/dao"
	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/service"
	pkgapp "github.com/kbaselabs/knowledge-sync-service/pkg/app"
	"github.com/kbaselabs/knowledge-sync-service/pkg/workerpool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool *workerpool.Pool

	// Repository 层
	DeviceRepo   domain.DeviceRepository
	ChangeRepo   domain.ChangeRepository
	ConflictRepo domain.ConflictRepository
	EntityStore  domain.EntityStore

	// Service 层
	DeviceService   service.DeviceService
	SyncService     service.SyncService
	ConflictService service.ConflictService
	Notifier        service.SyncNotifier

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	// StartTime 服务启动时间
	StartTime time.Time

	// 关闭控制
	shutdownCh chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 DAO
	a.Dao = dao.New(db)

	// 初始化 TokenManager
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    "knowledge-sync-service",
		Expiry:    cfg.GetTokenExpiry(),
	})

	// 初始化 Repository 层
	a.DeviceRepo = dao.NewDeviceRepository(a.Dao)
	a.ChangeRepo = dao.NewChangeRepository(a.Dao)
	a.ConflictRepo = dao.NewConflictRepository(a.Dao)
	a.EntityStore = dao.NewEntityStore(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := service.ServiceConfig{
		DefaultPageSize:   cfg.App.DefaultPageSize,
		MaxPageSize:       cfg.App.MaxPageSize,
		IncludeOwnChanges: cfg.Sync.IncludeOwnChanges,
	}

	// 初始化 Service 层（依赖注入）
	a.Notifier = service.NewLogNotifier(a.workerPool, logger)
	a.DeviceService = service.NewDeviceService(a.DeviceRepo, logger)
	a.SyncService = service.NewSyncService(svcConfig,
		a.DeviceService, a.DeviceRepo, a.ChangeRepo, a.ConflictRepo,
		a.Dao, a.Notifier, logger)
	a.ConflictService = service.NewConflictService(a.ConflictRepo, a.Dao, a.Notifier, logger)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("workerPoolQueueSize", wpConfig.QueueSize))

	return a, nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// GetAuthTokenKey 获取 Token 密钥
func (a *App) GetAuthTokenKey() string {
	return a.config.Security.AuthTokenKey
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> 后台操作 -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	a.closeOnce.Do(func() {
		close(a.shutdownCh)
	})

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		a.workerPool.Close()
	}

	// 2. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 3. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}

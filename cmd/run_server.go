package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/global"
	internalApp "github.com/kbaselabs/knowledge-sync-service/internal/app"
	"github.com/kbaselabs/knowledge-sync-service/internal/dao"
	"github.com/kbaselabs/knowledge-sync-service/internal/routers"
	"github.com/kbaselabs/knowledge-sync-service/internal/task"
	"github.com/kbaselabs/knowledge-sync-service/pkg/fileurl"
	"github.com/kbaselabs/knowledge-sync-service/pkg/logger"
	"github.com/kbaselabs/knowledge-sync-service/pkg/safe_close"
	pkgvalidator "github.com/kbaselabs/knowledge-sync-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server 服务实例，持有启动期间初始化的全部组件
type Server struct {
	logger *zap.Logger
	config *internalApp.AppConfig
	db     *gorm.DB
	ut     *ut.UniversalTranslator

	httpServer        *http.Server
	privateHttpServer *http.Server

	sc  *safe_close.SafeClose
	app *internalApp.App
}

// 默认密钥列表，出现在其中的密钥视为不安全
var defaultSecretKeys = []string{
	"knowledge-sync-Auth-Token",
	"",
}

// NewServer 按照配置初始化服务
// 初始化顺序：配置 -> 日志 -> 存储目录 -> 数据库 -> App 容器 -> 验证器 -> 定时任务 -> HTTP 服务
func NewServer(runEnv *runFlags) (*Server, error) {
	s := &Server{
		sc: safe_close.NewSafeClose(),
	}

	// 加载配置
	cfg, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s.config = cfg

	// 命令行参数覆盖配置文件
	if len(runEnv.port) > 0 {
		s.config.Server.HttpPort = ":" + runEnv.port
	}
	if len(runEnv.runMode) > 0 {
		s.config.Server.RunMode = runEnv.runMode
	}

	gin.SetMode(s.config.Server.RunMode)

	// 初始化日志
	if err := s.initLoggerWithConfig(); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	s.logger.Info("config loaded", zap.String("file", configRealpath))

	if s.config.Server.RunMode == gin.DebugMode {
		global.Dump(s.config)
	}

	// 安全检查
	s.checkSecurityConfigWithConfig()

	// 初始化存储目录
	if err := s.initStorageWithConfig(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 初始化数据库
	if err := s.initDatabaseWithConfig(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// 初始化 App 容器
	s.app, err = internalApp.NewApp(s.config, s.logger, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to init app container: %w", err)
	}

	// 初始化验证器和翻译器
	if err := s.initValidatorWithLogger(); err != nil {
		return nil, fmt.Errorf("failed to init validator: %w", err)
	}

	// 初始化定时任务
	s.initScheduler()

	fmt.Print(" K N O W L E D G E   S Y N C \n")
	s.logger.Info("service starting",
		zap.String("version", internalApp.Version),
		zap.String("gitTag", internalApp.GitTag),
		zap.String("buildTime", internalApp.BuildTime),
		zap.String("runMode", s.config.Server.RunMode))

	// 启动 HTTP 服务
	s.startHTTPServers()

	// App 容器优雅关闭挂到 safe_close 上
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()
		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("app container shutdown error", zap.Error(err))
		}
	})

	return s, nil
}

// initLoggerWithConfig 初始化主日志器
func (s *Server) initLoggerWithConfig() error {
	lg, err := logger.NewLogger(logger.Config{
		Level:      s.config.Log.Level,
		File:       s.config.Log.File,
		Production: s.config.Log.Production,
	})
	if err != nil {
		return err
	}
	s.logger = lg
	global.Logger = lg
	return nil
}

// checkSecurityConfigWithConfig 检查密钥是否仍为默认值
func (s *Server) checkSecurityConfigWithConfig() {
	for _, key := range defaultSecretKeys {
		if s.config.Security.AuthTokenKey == key {
			s.logger.Warn("auth-token-key is a default value, please change it in the config file",
				zap.String("file", s.config.File))
			return
		}
	}
}

// initStorageWithConfig 创建日志和数据库目录
func (s *Server) initStorageWithConfig() error {
	if s.config.Log.File != "" {
		if err := fileurl.CreatePath(s.config.Log.File, 0755); err != nil {
			return fmt.Errorf("failed to create log dir %s: %w", filepath.Dir(s.config.Log.File), err)
		}
	}
	if s.config.Database.Type == "sqlite" && s.config.Database.Path != "" {
		if err := fileurl.CreatePath(s.config.Database.Path, 0755); err != nil {
			return fmt.Errorf("failed to create database dir %s: %w", filepath.Dir(s.config.Database.Path), err)
		}
	}
	return nil
}

// initDatabaseWithConfig 初始化数据库连接
func (s *Server) initDatabaseWithConfig() error {
	dbConfig := dao.DatabaseConfig{
		Type:         s.config.Database.Type,
		Path:         s.config.Database.Path,
		UserName:     s.config.Database.UserName,
		Password:     s.config.Database.Password,
		Host:         s.config.Database.Host,
		Name:         s.config.Database.Name,
		Charset:      s.config.Database.Charset,
		ParseTime:    s.config.Database.ParseTime,
		TablePrefix:  s.config.Database.TablePrefix,
		MaxIdleConns: s.config.Database.MaxIdleConns,
		MaxOpenConns: s.config.Database.MaxOpenConns,
	}

	db, err := dao.NewDBEngine(dbConfig, s.config.Server.RunMode)
	if err != nil {
		return err
	}
	s.db = db
	s.logger.Info("database initialized", zap.String("type", s.config.Database.Type))
	return nil
}

// initValidatorWithLogger 初始化自定义验证器和 en/zh 翻译器
func (s *Server) initValidatorWithLogger() error {
	binding.Validator = pkgvalidator.NewCustomValidator()

	v, ok := binding.Validator.Engine().(*validatorV10.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine type")
	}

	// 错误消息里使用 json 标签名而不是结构体字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	zhLocale := zh.New()
	s.ut = ut.New(enLocale, enLocale, zhLocale)

	if trans, found := s.ut.GetTranslator("zh"); found {
		if err := zhTranslations.RegisterDefaultTranslations(v, trans); err != nil {
			return err
		}
	}
	if trans, found := s.ut.GetTranslator("en"); found {
		if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
			return err
		}
	}

	pkgvalidator.RegisterCustom()

	s.logger.Info("validator initialized")
	return nil
}

// initScheduler 初始化定时任务调度器
func (s *Server) initScheduler() {
	scheduler := task.NewScheduler(s.logger, s.sc)
	scheduler.AddTask(task.NewSyncStatsTask(s.app.SyncService, s.logger, s.config.GetStatsInterval()))
	scheduler.Start()
}

// startHTTPServers 启动 API 服务和私有服务（指标 / pprof）
func (s *Server) startHTTPServers() {
	router := routers.NewRouter(s.app, s.ut)
	s.httpServer = &http.Server{
		Addr:           s.config.Server.HttpPort,
		Handler:        router,
		ReadTimeout:    time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(s.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		go func() {
			s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.sc.SendCloseSignal(err)
			}
		}()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", zap.Error(err))
		}
	})

	if s.config.Server.PrivateHttpListen != "" {
		privateRouter := routers.NewPrivateRouterWithLogger(s.config.Server.RunMode, s.logger)
		s.privateHttpServer = &http.Server{
			Addr:    s.config.Server.PrivateHttpListen,
			Handler: privateRouter,
		}

		s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			go func() {
				s.logger.Info("private http server listening", zap.String("addr", s.privateHttpServer.Addr))
				if err := s.privateHttpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.logger.Error("private http server error", zap.Error(err))
				}
			}()
			<-closeSignal
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.privateHttpServer.Shutdown(ctx); err != nil {
				s.logger.Error("private http server shutdown error", zap.Error(err))
			}
		})
	}
}

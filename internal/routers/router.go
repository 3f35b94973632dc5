// Package routers 组装 HTTP 路由
package routers

import (
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/app"
	"github.com/kbaselabs/knowledge-sync-service/internal/middleware"
	"github.com/kbaselabs/knowledge-sync-service/internal/routers/api_router"
	"github.com/kbaselabs/knowledge-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/sync/push",
		FillInterval: time.Second,
		Capacity:     20,
		Quantum:      20,
	},
	limiter.BucketRule{
		Key:          "/devices/register",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

// NewRouter 创建对外 HTTP 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		deviceHandler := api_router.NewDeviceHandler(appContainer)
		syncHandler := api_router.NewSyncHandler(appContainer)
		conflictHandler := api_router.NewConflictHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		// 无需认证的接口
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		auth := middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)

		api.Use(auth).POST("/sync/devices/register", deviceHandler.Register)
		api.Use(auth).GET("/sync/devices", deviceHandler.List)
		api.Use(auth).DELETE("/sync/devices/:deviceId", deviceHandler.Deactivate)

		api.Use(auth).POST("/sync/pull", syncHandler.Pull)
		api.Use(auth).POST("/sync/push", syncHandler.Push)
		api.Use(auth).GET("/sync/stats", syncHandler.Stats)

		api.Use(auth).GET("/sync/conflicts", conflictHandler.List)
		api.Use(auth).POST("/sync/conflicts/:id/resolve", conflictHandler.Resolve)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}

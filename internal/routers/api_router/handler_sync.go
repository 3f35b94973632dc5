package api_router

import (
	"github.com/kbaselabs/knowledge-sync-service/internal/app"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	pkgapp "github.com/kbaselabs/knowledge-sync-service/pkg/app"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"
	apperrors "github.com/kbaselabs/knowledge-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncHandler 同步 API 路由处理器
type SyncHandler struct {
	*Handler
}

// NewSyncHandler 创建 SyncHandler 实例
func NewSyncHandler(a *app.App) *SyncHandler {
	return &SyncHandler{Handler: NewHandler(a)}
}

// Pull 拉取变更
// lastSync 为空表示全量拉取，默认不回传设备自身产生的变更
func (h *SyncHandler) Pull(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SyncPullRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SyncHandler.Pull.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SyncHandler.Pull err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	result, err := h.App.SyncService.Pull(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SyncHandler.Pull", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Push 推送变更
// 逐条检测冲突，校验失败的条目在响应中逐条报告
func (h *SyncHandler) Push(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SyncPushRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SyncHandler.Push.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SyncHandler.Push err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	result, err := h.App.SyncService.Push(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SyncHandler.Push", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Stats 获取同步统计
func (h *SyncHandler) Stats(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SyncHandler.Stats err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	result, err := h.App.SyncService.Stats(ctx, uid)
	if err != nil {
		h.logError(ctx, "SyncHandler.Stats", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

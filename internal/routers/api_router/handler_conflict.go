package api_router

import (
	"github.com/kbaselabs/knowledge-sync-service/internal/app"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	pkgapp "github.com/kbaselabs/knowledge-sync-service/pkg/app"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"
	"github.com/kbaselabs/knowledge-sync-service/pkg/convert"
	apperrors "github.com/kbaselabs/knowledge-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConflictHandler 冲突 API 路由处理器
type ConflictHandler struct {
	*Handler
}

// NewConflictHandler 创建 ConflictHandler 实例
func NewConflictHandler(a *app.App) *ConflictHandler {
	return &ConflictHandler{Handler: NewHandler(a)}
}

// List 分页获取未解决冲突
func (h *ConflictHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.List err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	page := pkgapp.GetPage(c)
	pageSize := pkgapp.GetPageSizeWithConfig(c, pkgapp.PaginationConfig{
		DefaultPageSize: h.App.Config().App.DefaultPageSize,
		MaxPageSize:     h.App.Config().App.MaxPageSize,
	})

	list, count, err := h.App.ConflictService.List(ctx, uid, page, pageSize)
	if err != nil {
		h.logError(ctx, "ConflictHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, count)
}

// Resolve 解决冲突
// 解决方式 merge 暂不支持，返回对应错误码
func (h *ConflictHandler) Resolve(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictResolveRequest{}

	conflictID := convert.StrTo(c.Param("id")).MustInt64()
	if conflictID <= 0 {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("invalid conflict id"))
		return
	}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.Resolve.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.Resolve err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	result, err := h.App.ConflictService.Resolve(ctx, uid, conflictID, params)
	if err != nil {
		h.logError(ctx, "ConflictHandler.Resolve", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

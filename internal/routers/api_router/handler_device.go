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

// DeviceHandler 设备 API 路由处理器
type DeviceHandler struct {
	*Handler
}

// NewDeviceHandler 创建 DeviceHandler 实例
func NewDeviceHandler(a *app.App) *DeviceHandler {
	return &DeviceHandler{Handler: NewHandler(a)}
}

// Register 注册设备
// 同一 deviceId 重复注册视为更新并重新启用
func (h *DeviceHandler) Register(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DeviceRegisterRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DeviceHandler.Register.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DeviceHandler.Register err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	device, err := h.App.DeviceService.Register(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "DeviceHandler.Register", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(device))
}

// List 获取用户全部设备
func (h *DeviceHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DeviceHandler.List err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	devices, err := h.App.DeviceService.List(ctx, uid)
	if err != nil {
		h.logError(ctx, "DeviceHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(devices))
}

// Deactivate 停用设备
// 设备标识取自路径参数，停用后设备不再参与同步
func (h *DeviceHandler) Deactivate(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	deviceID := c.Param("deviceId")
	if deviceID == "" {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("deviceId is required"))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("DeviceHandler.Deactivate err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	if err := h.App.DeviceService.Deactivate(ctx, uid, deviceID); err != nil {
		h.logError(ctx, "DeviceHandler.Deactivate", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

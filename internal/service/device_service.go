package service

import (
	"context"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"
	"github.com/kbaselabs/knowledge-sync-service/pkg/logger"

	"go.uber.org/zap"
)

// DeviceService 定义设备服务接口
type DeviceService interface {
	// Register 注册设备，重复注册时更新名称与类型并重新启用
	Register(ctx context.Context, uid int64, params *dto.DeviceRegisterRequest) (*dto.DeviceDTO, error)
	// List 获取用户全部设备
	List(ctx context.Context, uid int64) ([]*dto.DeviceDTO, error)
	// Deactivate 停用设备，停用后不再参与同步
	Deactivate(ctx context.Context, uid int64, deviceID string) error
	// MustGetActive 获取启用状态的设备，供同步流程校验
	MustGetActive(ctx context.Context, uid int64, deviceID string) (*domain.Device, error)
}

// deviceService 实现 DeviceService 接口
type deviceService struct {
	deviceRepo domain.DeviceRepository
	logger     *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(deviceRepo domain.DeviceRepository, logger *zap.Logger) DeviceService {
	return &deviceService{
		deviceRepo: deviceRepo,
		logger:     logger,
	}
}

// Register 注册设备
// device_id 在用户下唯一，重复注册视为更新
func (s *deviceService) Register(ctx context.Context, uid int64, params *dto.DeviceRegisterRequest) (*dto.DeviceDTO, error) {
	if !domain.DeviceType(params.DeviceType).Valid() {
		return nil, code.ErrorInvalidParams.WithDetails("unknown device type: " + params.DeviceType)
	}

	existing, err := s.deviceRepo.GetByDeviceID(ctx, params.DeviceID, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	if existing != nil {
		existing.DeviceName = params.DeviceName
		existing.DeviceType = domain.DeviceType(params.DeviceType)
		existing.IsActive = true

		updated, err := s.deviceRepo.Update(ctx, existing)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}

		s.logger.Info("device re-registered",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldDeviceID, params.DeviceID))
		return dto.DeviceToDTO(updated), nil
	}

	created, err := s.deviceRepo.Create(ctx, &domain.Device{
		UID:        uid,
		DeviceID:   params.DeviceID,
		DeviceName: params.DeviceName,
		DeviceType: domain.DeviceType(params.DeviceType),
		IsActive:   true,
	})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	s.logger.Info("device registered",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldDeviceID, params.DeviceID),
		zap.String("deviceType", params.DeviceType))
	return dto.DeviceToDTO(created), nil
}

// List 获取用户全部设备
func (s *deviceService) List(ctx context.Context, uid int64) ([]*dto.DeviceDTO, error) {
	list, err := s.deviceRepo.List(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return dto.DevicesToDTO(list), nil
}

// Deactivate 停用设备
func (s *deviceService) Deactivate(ctx context.Context, uid int64, deviceID string) error {
	existing, err := s.deviceRepo.GetByDeviceID(ctx, deviceID, uid)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing == nil {
		return code.ErrorDeviceNotFound
	}

	if err := s.deviceRepo.SetActive(ctx, deviceID, uid, false); err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}

	s.logger.Info("device deactivated",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldDeviceID, deviceID))
	return nil
}

// MustGetActive 获取启用状态的设备
func (s *deviceService) MustGetActive(ctx context.Context, uid int64, deviceID string) (*domain.Device, error) {
	device, err := s.deviceRepo.GetByDeviceID(ctx, deviceID, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if device == nil {
		return nil, code.ErrorDeviceNotFound
	}
	if !device.CanSync() {
		return nil, code.ErrorDeviceInactive
	}
	return device, nil
}

// 确保 deviceService 实现了 DeviceService 接口
var _ DeviceService = (*deviceService)(nil)

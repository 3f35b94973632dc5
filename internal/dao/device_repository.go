package dao

import (
	"context"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/model"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// deviceRepository 实现 domain.DeviceRepository 接口
type deviceRepository struct {
	dao *Dao
}

// NewDeviceRepository 创建 DeviceRepository 实例
func NewDeviceRepository(dao *Dao) domain.DeviceRepository {
	return &deviceRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *deviceRepository) toDomain(m *model.Device) *domain.Device {
	if m == nil {
		return nil
	}
	d := &domain.Device{
		ID:         m.ID,
		UID:        m.UID,
		DeviceID:   m.DeviceID,
		DeviceName: m.DeviceName,
		DeviceType: domain.DeviceType(m.DeviceType),
		IsActive:   m.IsActive,
		CreatedAt:  time.Time(m.CreatedAt),
		UpdatedAt:  time.Time(m.UpdatedAt),
	}
	if m.LastSync != nil {
		t := time.Time(*m.LastSync)
		d.LastSync = &t
	}
	return d
}

// toModel 将领域模型转换为数据库模型
func (r *deviceRepository) toModel(d *domain.Device) *model.Device {
	if d == nil {
		return nil
	}
	m := &model.Device{
		ID:         d.ID,
		UID:        d.UID,
		DeviceID:   d.DeviceID,
		DeviceName: d.DeviceName,
		DeviceType: string(d.DeviceType),
		IsActive:   d.IsActive,
		CreatedAt:  timex.Time(d.CreatedAt),
		UpdatedAt:  timex.Time(d.UpdatedAt),
	}
	if d.LastSync != nil {
		t := timex.Time(*d.LastSync)
		m.LastSync = &t
	}
	return m
}

// GetByDeviceID 根据设备标识获取设备，不存在时返回 nil
func (r *deviceRepository) GetByDeviceID(ctx context.Context, deviceID string, uid int64) (*domain.Device, error) {
	var m model.Device
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND device_id = ?", uid, deviceID).
		First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "device query failed")
	}
	return r.toDomain(&m), nil
}

// Create 创建设备
func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	m := r.toModel(device)
	m.CreatedAt = timex.Now()
	m.UpdatedAt = timex.Now()

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "device create failed")
	}
	return r.toDomain(m), nil
}

// Update 更新设备名称与类型
func (r *deviceRepository) Update(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).
		Where("uid = ? AND device_id = ?", device.UID, device.DeviceID).
		Updates(map[string]interface{}{
			"device_name": device.DeviceName,
			"device_type": string(device.DeviceType),
			"is_active":   device.IsActive,
			"updated_at":  timex.Now(),
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "device update failed")
	}
	return r.GetByDeviceID(ctx, device.DeviceID, device.UID)
}

// List 获取用户全部设备
func (r *deviceRepository) List(ctx context.Context, uid int64) ([]*domain.Device, error) {
	var mList []*model.Device
	err := r.dao.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at ASC").
		Find(&mList).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "device list failed")
	}

	var list []*domain.Device
	for _, m := range mList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// SetActive 更新设备启用状态
func (r *deviceRepository) SetActive(ctx context.Context, deviceID string, uid int64, active bool) error {
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).
		Where("uid = ? AND device_id = ?", uid, deviceID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": timex.Now(),
		}).Error
	return pkgerrors.Wrap(err, "device set active failed")
}

// UpdateLastSync 更新设备最后同步时间
func (r *deviceRepository) UpdateLastSync(ctx context.Context, deviceID string, uid int64, t time.Time) error {
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).
		Where("uid = ? AND device_id = ?", uid, deviceID).
		Updates(map[string]interface{}{
			"last_sync":  timex.Time(t),
			"updated_at": timex.Now(),
		}).Error
	return pkgerrors.Wrap(err, "device update last sync failed")
}

// Count 获取用户设备数量
func (r *deviceRepository) Count(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).
		Where("uid = ?", uid).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "device count failed")
}

// CountActive 获取用户启用设备数量
func (r *deviceRepository) CountActive(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).
		Where("uid = ? AND is_active = ?", uid, true).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "device count active failed")
}

// LastSyncAt 获取用户全部设备中最近的同步时间
func (r *deviceRepository) LastSyncAt(ctx context.Context, uid int64) (*time.Time, error) {
	var m model.Device
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND last_sync IS NOT NULL", uid).
		Order("last_sync DESC").
		First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "device last sync query failed")
	}
	if m.LastSync == nil {
		return nil, nil
	}
	t := time.Time(*m.LastSync)
	return &t, nil
}

// CountAll 获取全部设备数量
func (r *deviceRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Device{}).Count(&count).Error
	return count, pkgerrors.Wrap(err, "device count all failed")
}

// 确保 deviceRepository 实现了 domain.DeviceRepository 接口
var _ domain.DeviceRepository = (*deviceRepository)(nil)

package model

import (
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"
)

// Device 设备注册表
// 每个用户下的 device_id 唯一
type Device struct {
	ID         int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID        int64       `gorm:"column:uid;index:idx_device_uid_device_id,unique" json:"uid"`
	DeviceID   string      `gorm:"column:device_id;size:128;index:idx_device_uid_device_id,unique" json:"deviceId"`
	DeviceName string      `gorm:"column:device_name;size:255" json:"deviceName"`
	DeviceType string      `gorm:"column:device_type;size:32" json:"deviceType"`
	IsActive   bool        `gorm:"column:is_active;default:true" json:"isActive"`
	LastSync   *timex.Time `gorm:"column:last_sync" json:"lastSync"`
	CreatedAt  timex.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  timex.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 返回表名
func (*Device) TableName() string {
	return "device"
}

// Package domain 定义领域模型和接口
package domain

import "time"

// DeviceType 定义设备类型
type DeviceType string

const (
	DeviceTypeWeb     DeviceType = "web"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeDesktop DeviceType = "desktop"
)

// ResolutionDeviceID 冲突解决产生的变更所归属的虚拟设备标识
const ResolutionDeviceID = "resolution"

// Device 设备领域模型
type Device struct {
	ID         int64
	UID        int64
	DeviceID   string
	DeviceName string
	DeviceType DeviceType
	IsActive   bool
	LastSync   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Valid 判断设备类型是否合法
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeWeb, DeviceTypeMobile, DeviceTypeDesktop:
		return true
	}
	return false
}

// CanSync 判断设备是否允许参与同步
func (d *Device) CanSync() bool {
	return d.IsActive
}

// Package dto 定义接口层数据传输对象
package dto

import (
	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	"github.com/jinzhu/copier"
)

// DeviceRegisterRequest 设备注册请求
type DeviceRegisterRequest struct {
	DeviceID   string `json:"deviceId" form:"deviceId" binding:"required,max=128"`
	DeviceName string `json:"deviceName" form:"deviceName" binding:"required,max=255"`
	DeviceType string `json:"deviceType" form:"deviceType" binding:"required,oneof=web mobile desktop"`
}

// DeviceDTO 设备响应对象
type DeviceDTO struct {
	DeviceID   string      `json:"deviceId"`
	DeviceName string      `json:"deviceName"`
	DeviceType string      `json:"deviceType"`
	IsActive   bool        `json:"isActive"`
	LastSync   *timex.Time `json:"lastSync"`
	CreatedAt  timex.Time  `json:"createdAt"`
}

// DeviceToDTO 将设备领域模型转换为响应对象
func DeviceToDTO(d *domain.Device) *DeviceDTO {
	if d == nil {
		return nil
	}
	out := &DeviceDTO{}
	_ = copier.Copy(out, d)
	out.DeviceType = string(d.DeviceType)
	out.CreatedAt = timex.Time(d.CreatedAt)
	if d.LastSync != nil {
		t := timex.Time(*d.LastSync)
		out.LastSync = &t
	}
	return out
}

// DevicesToDTO 批量转换设备列表
func DevicesToDTO(list []*domain.Device) []*DeviceDTO {
	out := make([]*DeviceDTO, 0, len(list))
	for _, d := range list {
		out = append(out, DeviceToDTO(d))
	}
	return out
}

package model

import (
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	"gorm.io/datatypes"
)

// Change 变更日志表，只追加不修改
// timestamp 为客户端产生变更时的时间
type Change struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID        int64          `gorm:"column:uid;index:idx_change_uid_entity" json:"uid"`
	DeviceID   string         `gorm:"column:device_id;size:128;index" json:"deviceId"`
	EntityType string         `gorm:"column:entity_type;size:32;index:idx_change_uid_entity" json:"entityType"`
	EntityID   string         `gorm:"column:entity_id;size:128;index:idx_change_uid_entity" json:"entityId"`
	Operation  string         `gorm:"column:operation;size:16" json:"operation"`
	ChangeData datatypes.JSON `gorm:"column:change_data" json:"changeData"`
	Timestamp  timex.Time     `gorm:"column:timestamp;index" json:"timestamp"`
	CreatedAt  timex.Time     `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName 返回表名
func (*Change) TableName() string {
	return "change"
}

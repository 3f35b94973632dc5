package model

import (
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	"gorm.io/datatypes"
)

// Conflict 冲突记录表
// device1 为当前最新一侧，device2 为后到一侧
type Conflict struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID         int64          `gorm:"column:uid;index:idx_conflict_uid_entity" json:"uid"`
	EntityType  string         `gorm:"column:entity_type;size:32;index:idx_conflict_uid_entity" json:"entityType"`
	EntityID    string         `gorm:"column:entity_id;size:128;index:idx_conflict_uid_entity" json:"entityId"`
	Device1ID   string         `gorm:"column:device1_id;size:128" json:"device1Id"`
	Device1Data datatypes.JSON `gorm:"column:device1_data" json:"device1Data"`
	Device2ID   string         `gorm:"column:device2_id;size:128" json:"device2Id"`
	Device2Data datatypes.JSON `gorm:"column:device2_data" json:"device2Data"`
	IsResolved  bool           `gorm:"column:is_resolved;default:false;index" json:"isResolved"`
	Resolution  string         `gorm:"column:resolution;size:16" json:"resolution"`
	ResolvedAt  *timex.Time    `gorm:"column:resolved_at" json:"resolvedAt"`
	CreatedAt   timex.Time     `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   timex.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 返回表名
func (*Conflict) TableName() string {
	return "conflict"
}

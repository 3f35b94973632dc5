package model

import (
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	"gorm.io/datatypes"
)

// KnowledgeItem 知识条目物化表，保存最近一次干净应用后的状态
type KnowledgeItem struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID       int64          `gorm:"column:uid;index:idx_item_uid_entity_id,unique" json:"uid"`
	EntityID  string         `gorm:"column:entity_id;size:128;index:idx_item_uid_entity_id,unique" json:"entityId"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	IsDeleted bool           `gorm:"column:is_deleted;default:false" json:"isDeleted"`
	UpdatedAt timex.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 返回表名
func (*KnowledgeItem) TableName() string {
	return "knowledge_item"
}

// Category 分类物化表
type Category struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID       int64          `gorm:"column:uid;index:idx_category_uid_entity_id,unique" json:"uid"`
	EntityID  string         `gorm:"column:entity_id;size:128;index:idx_category_uid_entity_id,unique" json:"entityId"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	IsDeleted bool           `gorm:"column:is_deleted;default:false" json:"isDeleted"`
	UpdatedAt timex.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 返回表名
func (*Category) TableName() string {
	return "category"
}

// Tag 标签物化表
type Tag struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID       int64          `gorm:"column:uid;index:idx_tag_uid_entity_id,unique" json:"uid"`
	EntityID  string         `gorm:"column:entity_id;size:128;index:idx_tag_uid_entity_id,unique" json:"entityId"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	IsDeleted bool           `gorm:"column:is_deleted;default:false" json:"isDeleted"`
	UpdatedAt timex.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 返回表名
func (*Tag) TableName() string {
	return "tag"
}

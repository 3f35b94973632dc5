package domain

import (
	"encoding/json"
	"time"
)

// EntityType 定义可同步的实体类型
type EntityType string

const (
	EntityTypeKnowledge EntityType = "knowledge"
	EntityTypeCategory  EntityType = "category"
	EntityTypeTag       EntityType = "tag"
)

// Operation 定义变更操作类型
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Change 变更领域模型，变更日志只追加不修改
type Change struct {
	ID         int64
	UID        int64
	DeviceID   string
	EntityType EntityType
	EntityID   string
	Operation  Operation
	ChangeData json.RawMessage
	Timestamp  time.Time
	CreatedAt  time.Time
}

// Valid 判断实体类型是否合法
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeKnowledge, EntityTypeCategory, EntityTypeTag:
		return true
	}
	return false
}

// Valid 判断操作类型是否合法
func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// IsDelete 判断变更是否为删除操作
func (c *Change) IsDelete() bool {
	return c.Operation == OperationDelete
}

// SameDevice 判断两条变更是否来自同一设备
func (c *Change) SameDevice(other *Change) bool {
	return other != nil && c.DeviceID == other.DeviceID
}

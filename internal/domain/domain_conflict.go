package domain

import (
	"encoding/json"
	"time"
)

// Resolution 定义冲突解决方式
type Resolution string

const (
	ResolutionDevice1 Resolution = "device1"
	ResolutionDevice2 Resolution = "device2"
	ResolutionMerge   Resolution = "merge"
)

// Conflict 冲突领域模型
// Device1 为冲突检出时的最新一侧，Device2 为后到一侧
type Conflict struct {
	ID          int64
	UID         int64
	EntityType  EntityType
	EntityID    string
	Device1ID   string
	Device1Data json.RawMessage
	Device2ID   string
	Device2Data json.RawMessage
	IsResolved  bool
	Resolution  Resolution
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Valid 判断解决方式是否合法
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionDevice1, ResolutionDevice2, ResolutionMerge:
		return true
	}
	return false
}

// WinnerData 返回解决方式选中一侧的数据
// merge 没有确定的赢家，返回 nil
func (c *Conflict) WinnerData(r Resolution) json.RawMessage {
	switch r {
	case ResolutionDevice1:
		return c.Device1Data
	case ResolutionDevice2:
		return c.Device2Data
	}
	return nil
}

// WinnerDeviceID 返回解决方式选中一侧的设备标识
func (c *Conflict) WinnerDeviceID(r Resolution) string {
	switch r {
	case ResolutionDevice1:
		return c.Device1ID
	case ResolutionDevice2:
		return c.Device2ID
	}
	return ""
}

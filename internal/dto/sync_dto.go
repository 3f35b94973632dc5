package dto

import (
	"encoding/json"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"
)

// SyncPullRequest 拉取变更请求
// lastSync 为空表示全量拉取
type SyncPullRequest struct {
	DeviceID   string `json:"deviceId" form:"deviceId" binding:"required,max=128"`
	LastSync   string `json:"lastSync" form:"lastSync"`
	IncludeOwn bool   `json:"includeOwn" form:"includeOwn"`
}

// ChangeInput 推送变更条目
type ChangeInput struct {
	EntityType string          `json:"entityType" binding:"required,oneof=knowledge category tag"`
	EntityID   string          `json:"entityId" binding:"required,max=128"`
	Operation  string          `json:"operation" binding:"required,oneof=create update delete"`
	ChangeData json.RawMessage `json:"changeData"`
	Timestamp  string          `json:"timestamp" binding:"required"`
}

// SyncPushRequest 推送变更请求
type SyncPushRequest struct {
	DeviceID string        `json:"deviceId" binding:"required,max=128"`
	Changes  []ChangeInput `json:"changes" binding:"required,min=1,dive"`
}

// ChangeDTO 变更响应对象
type ChangeDTO struct {
	ID         int64           `json:"id"`
	DeviceID   string          `json:"deviceId"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Operation  string          `json:"operation"`
	ChangeData json.RawMessage `json:"changeData"`
	Timestamp  timex.Time      `json:"timestamp"`
	CreatedAt  timex.Time      `json:"createdAt"`
}

// ChangeToDTO 将变更领域模型转换为响应对象
func ChangeToDTO(c *domain.Change) *ChangeDTO {
	if c == nil {
		return nil
	}
	return &ChangeDTO{
		ID:         c.ID,
		DeviceID:   c.DeviceID,
		EntityType: string(c.EntityType),
		EntityID:   c.EntityID,
		Operation:  string(c.Operation),
		ChangeData: c.ChangeData,
		Timestamp:  timex.Time(c.Timestamp),
		CreatedAt:  timex.Time(c.CreatedAt),
	}
}

// SyncPullResponse 拉取变更响应
// Changes 按实体类型分组，空分组也始终返回，客户端可以依赖固定形状
type SyncPullResponse struct {
	Changes      map[string][]*ChangeDTO `json:"changes"`
	SyncTime     string                  `json:"syncTime"`
	HasConflicts bool                    `json:"hasConflicts"`
}

// GroupChangesByType 将变更列表按实体类型分组
// 所有已知实体类型都会出现，无变更的类型为空序列
func GroupChangesByType(list []*domain.Change) map[string][]*ChangeDTO {
	groups := map[string][]*ChangeDTO{
		string(domain.EntityTypeKnowledge): {},
		string(domain.EntityTypeCategory):  {},
		string(domain.EntityTypeTag):       {},
	}
	for _, c := range list {
		key := string(c.EntityType)
		groups[key] = append(groups[key], ChangeToDTO(c))
	}
	return groups
}

// PushItemError 推送批次中单条变更的失败信息
// Code 为对应的业务错误码，Reason 为可读描述
type PushItemError struct {
	Index    int    `json:"index"`
	EntityID string `json:"entityId"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
}

// SyncPushResponse 推送变更响应
// Applied/Conflicts/Skipped 分别统计干净应用、检出冲突和陈旧跳过的条数
type SyncPushResponse struct {
	Applied   int             `json:"applied"`
	Conflicts int             `json:"conflicts"`
	Skipped   int             `json:"skipped"`
	Errors    []PushItemError `json:"errors,omitempty"`
	SyncTime  string          `json:"syncTime"`
}

// SyncStatsResponse 同步统计响应
// LastSync 为用户全部设备中最近的一次同步时间
type SyncStatsResponse struct {
	TotalDevices        int64       `json:"totalDevices"`
	ActiveDevices       int64       `json:"activeDevices"`
	TotalChanges        int64       `json:"totalChanges"`
	UnresolvedConflicts int64       `json:"unresolvedConflicts"`
	LastSync            *timex.Time `json:"lastSync"`
	LastChangeAt        *timex.Time `json:"lastChangeAt"`
}

// StatsToDTO 将同步统计领域模型转换为响应对象
func StatsToDTO(s *domain.SyncStats) *SyncStatsResponse {
	if s == nil {
		return nil
	}
	out := &SyncStatsResponse{
		TotalDevices:        s.TotalDevices,
		ActiveDevices:       s.ActiveDevices,
		TotalChanges:        s.TotalChanges,
		UnresolvedConflicts: s.UnresolvedConflicts,
	}
	if s.LastSyncAt != nil {
		t := timex.Time(*s.LastSyncAt)
		out.LastSync = &t
	}
	if s.LastChangeAt != nil {
		t := timex.Time(*s.LastChangeAt)
		out.LastChangeAt = &t
	}
	return out
}

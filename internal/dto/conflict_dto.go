package dto

import (
	"encoding/json"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"
)

// ConflictResolveRequest 冲突解决请求
type ConflictResolveRequest struct {
	Resolution string `json:"resolution" form:"resolution" binding:"required,oneof=device1 device2 merge"`
}

// ConflictDTO 冲突响应对象
type ConflictDTO struct {
	ID          int64           `json:"id"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	Device1ID   string          `json:"device1Id"`
	Device1Data json.RawMessage `json:"device1Data"`
	Device2ID   string          `json:"device2Id"`
	Device2Data json.RawMessage `json:"device2Data"`
	IsResolved  bool            `json:"isResolved"`
	Resolution  string          `json:"resolution,omitempty"`
	ResolvedAt  *timex.Time     `json:"resolvedAt,omitempty"`
	CreatedAt   timex.Time      `json:"createdAt"`
}

// ConflictToDTO 将冲突领域模型转换为响应对象
func ConflictToDTO(c *domain.Conflict) *ConflictDTO {
	if c == nil {
		return nil
	}
	out := &ConflictDTO{
		ID:          c.ID,
		EntityType:  string(c.EntityType),
		EntityID:    c.EntityID,
		Device1ID:   c.Device1ID,
		Device1Data: c.Device1Data,
		Device2ID:   c.Device2ID,
		Device2Data: c.Device2Data,
		IsResolved:  c.IsResolved,
		Resolution:  string(c.Resolution),
		CreatedAt:   timex.Time(c.CreatedAt),
	}
	if c.ResolvedAt != nil {
		t := timex.Time(*c.ResolvedAt)
		out.ResolvedAt = &t
	}
	return out
}

// ConflictsToDTO 批量转换冲突列表
func ConflictsToDTO(list []*domain.Conflict) []*ConflictDTO {
	out := make([]*ConflictDTO, 0, len(list))
	for _, c := range list {
		out = append(out, ConflictToDTO(c))
	}
	return out
}

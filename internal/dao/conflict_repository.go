package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/model"
	"github.com/kbaselabs/knowledge-sync-service/pkg/app"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// conflictRepository 实现 domain.ConflictRepository 接口
type conflictRepository struct {
	dao *Dao
}

// NewConflictRepository 创建 ConflictRepository 实例
func NewConflictRepository(dao *Dao) domain.ConflictRepository {
	return &conflictRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *conflictRepository) toDomain(m *model.Conflict) *domain.Conflict {
	if m == nil {
		return nil
	}
	c := &domain.Conflict{
		ID:          m.ID,
		UID:         m.UID,
		EntityType:  domain.EntityType(m.EntityType),
		EntityID:    m.EntityID,
		Device1ID:   m.Device1ID,
		Device1Data: json.RawMessage(m.Device1Data),
		Device2ID:   m.Device2ID,
		Device2Data: json.RawMessage(m.Device2Data),
		IsResolved:  m.IsResolved,
		Resolution:  domain.Resolution(m.Resolution),
		CreatedAt:   time.Time(m.CreatedAt),
		UpdatedAt:   time.Time(m.UpdatedAt),
	}
	if m.ResolvedAt != nil {
		t := time.Time(*m.ResolvedAt)
		c.ResolvedAt = &t
	}
	return c
}

// toModel 将领域模型转换为数据库模型
func (r *conflictRepository) toModel(c *domain.Conflict) *model.Conflict {
	if c == nil {
		return nil
	}
	m := &model.Conflict{
		ID:          c.ID,
		UID:         c.UID,
		EntityType:  string(c.EntityType),
		EntityID:    c.EntityID,
		Device1ID:   c.Device1ID,
		Device1Data: datatypes.JSON(c.Device1Data),
		Device2ID:   c.Device2ID,
		Device2Data: datatypes.JSON(c.Device2Data),
		IsResolved:  c.IsResolved,
		Resolution:  string(c.Resolution),
		CreatedAt:   timex.Time(c.CreatedAt),
		UpdatedAt:   timex.Time(c.UpdatedAt),
	}
	if c.ResolvedAt != nil {
		t := timex.Time(*c.ResolvedAt)
		m.ResolvedAt = &t
	}
	return m
}

// Create 创建冲突记录
func (r *conflictRepository) Create(ctx context.Context, conflict *domain.Conflict) (*domain.Conflict, error) {
	m := r.toModel(conflict)
	m.ID = 0
	m.CreatedAt = timex.Now()
	m.UpdatedAt = timex.Now()

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "conflict create failed")
	}
	return r.toDomain(m), nil
}

// Update 更新冲突记录
func (r *conflictRepository) Update(ctx context.Context, conflict *domain.Conflict) (*domain.Conflict, error) {
	err := r.dao.db.WithContext(ctx).Model(&model.Conflict{}).
		Where("id = ? AND uid = ?", conflict.ID, conflict.UID).
		Updates(map[string]interface{}{
			"device1_id":   conflict.Device1ID,
			"device1_data": datatypes.JSON(conflict.Device1Data),
			"device2_id":   conflict.Device2ID,
			"device2_data": datatypes.JSON(conflict.Device2Data),
			"updated_at":   timex.Now(),
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "conflict update failed")
	}
	return r.GetByID(ctx, conflict.ID, conflict.UID)
}

// GetByID 根据ID获取冲突，不存在时返回 nil
func (r *conflictRepository) GetByID(ctx context.Context, id, uid int64) (*domain.Conflict, error) {
	var m model.Conflict
	err := r.dao.db.WithContext(ctx).
		Where("id = ? AND uid = ?", id, uid).
		First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "conflict query failed")
	}
	return r.toDomain(&m), nil
}

// GetOpen 获取实体的未解决冲突，不存在时返回 nil
func (r *conflictRepository) GetOpen(ctx context.Context, uid int64, entityType domain.EntityType, entityID string) (*domain.Conflict, error) {
	var m model.Conflict
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND entity_type = ? AND entity_id = ? AND is_resolved = ?",
			uid, string(entityType), entityID, false).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "conflict open query failed")
	}
	return r.toDomain(&m), nil
}

// ListUnresolved 分页获取未解决冲突
func (r *conflictRepository) ListUnresolved(ctx context.Context, uid int64, page, pageSize int) ([]*domain.Conflict, error) {
	var mList []*model.Conflict
	err := r.dao.db.WithContext(ctx).
		Where("uid = ? AND is_resolved = ?", uid, false).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset(app.GetPageOffset(page, pageSize)).
		Find(&mList).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "conflict list failed")
	}

	var list []*domain.Conflict
	for _, m := range mList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// CountUnresolved 获取用户未解决冲突数量
func (r *conflictRepository) CountUnresolved(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Conflict{}).
		Where("uid = ? AND is_resolved = ?", uid, false).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "conflict count failed")
}

// CountUnresolvedAll 获取全部未解决冲突数量
func (r *conflictRepository) CountUnresolvedAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Conflict{}).
		Where("is_resolved = ?", false).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "conflict count all failed")
}

// MarkResolved 标记冲突为已解决
func (r *conflictRepository) MarkResolved(ctx context.Context, id, uid int64, resolution domain.Resolution, resolvedAt time.Time) error {
	err := r.dao.db.WithContext(ctx).Model(&model.Conflict{}).
		Where("id = ? AND uid = ?", id, uid).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolution":  string(resolution),
			"resolved_at": timex.Time(resolvedAt),
			"updated_at":  timex.Now(),
		}).Error
	return pkgerrors.Wrap(err, "conflict mark resolved failed")
}

// 确保 conflictRepository 实现了 domain.ConflictRepository 接口
var _ domain.ConflictRepository = (*conflictRepository)(nil)

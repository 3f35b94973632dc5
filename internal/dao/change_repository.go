package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/model"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// changeRepository 实现 domain.ChangeRepository 接口
type changeRepository struct {
	dao *Dao
}

// NewChangeRepository 创建 ChangeRepository 实例
func NewChangeRepository(dao *Dao) domain.ChangeRepository {
	return &changeRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *changeRepository) toDomain(m *model.Change) *domain.Change {
	if m == nil {
		return nil
	}
	return &domain.Change{
		ID:         m.ID,
		UID:        m.UID,
		DeviceID:   m.DeviceID,
		EntityType: domain.EntityType(m.EntityType),
		EntityID:   m.EntityID,
		Operation:  domain.Operation(m.Operation),
		ChangeData: json.RawMessage(m.ChangeData),
		Timestamp:  time.Time(m.Timestamp),
		CreatedAt:  time.Time(m.CreatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *changeRepository) toModel(c *domain.Change) *model.Change {
	if c == nil {
		return nil
	}
	return &model.Change{
		ID:         c.ID,
		UID:        c.UID,
		DeviceID:   c.DeviceID,
		EntityType: string(c.EntityType),
		EntityID:   c.EntityID,
		Operation:  string(c.Operation),
		ChangeData: datatypes.JSON(c.ChangeData),
		Timestamp:  timex.Time(c.Timestamp),
		CreatedAt:  timex.Time(c.CreatedAt),
	}
}

// Append 追加一条变更，日志只追加不修改
func (r *changeRepository) Append(ctx context.Context, change *domain.Change) (*domain.Change, error) {
	m := r.toModel(change)
	m.ID = 0
	m.CreatedAt = timex.Now()

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "change append failed")
	}
	return r.toDomain(m), nil
}

// ListSince 获取 since 之后落库的变更
// 重放顺序按客户端时间戳排，同一时间戳按落库先后排
// excludeDeviceID 非空时排除该设备产生的变更
func (r *changeRepository) ListSince(ctx context.Context, uid int64, since time.Time, excludeDeviceID string) ([]*domain.Change, error) {
	q := r.dao.db.WithContext(ctx).
		Where("uid = ?", uid)

	// since 为零值表示全量拉取
	if !since.IsZero() {
		q = q.Where("created_at > ?", timex.Time(since))
	}

	if excludeDeviceID != "" {
		q = q.Where("device_id <> ?", excludeDeviceID)
	}

	var mList []*model.Change
	err := q.Order("timestamp ASC, id ASC").Find(&mList).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "change list since failed")
	}

	var list []*domain.Change
	for _, m := range mList {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

func (r *changeRepository) latest(ctx context.Context, uid int64, entityType domain.EntityType, entityID string, lock bool) (*domain.Change, error) {
	q := r.dao.db.WithContext(ctx).
		Where("uid = ? AND entity_type = ? AND entity_id = ?", uid, string(entityType), entityID).
		Order("timestamp DESC, id DESC")

	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m model.Change
	err := q.First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "change latest query failed")
	}
	return r.toDomain(&m), nil
}

// Latest 获取实体的最新变更，按客户端时间戳排序，不存在时返回 nil
func (r *changeRepository) Latest(ctx context.Context, uid int64, entityType domain.EntityType, entityID string) (*domain.Change, error) {
	return r.latest(ctx, uid, entityType, entityID, false)
}

// LatestForUpdate 同 Latest，但在事务内加行锁
// sqlite 没有行锁，整库写事务已经提供了互斥
func (r *changeRepository) LatestForUpdate(ctx context.Context, uid int64, entityType domain.EntityType, entityID string) (*domain.Change, error) {
	return r.latest(ctx, uid, entityType, entityID, true)
}

// Count 获取用户变更总数
func (r *changeRepository) Count(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Change{}).
		Where("uid = ?", uid).
		Count(&count).Error
	return count, pkgerrors.Wrap(err, "change count failed")
}

// CountAll 获取全部变更数量
func (r *changeRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).Model(&model.Change{}).Count(&count).Error
	return count, pkgerrors.Wrap(err, "change count all failed")
}

// LastChangeAt 获取用户最近一次变更的客户端时间，没有变更时返回 nil
func (r *changeRepository) LastChangeAt(ctx context.Context, uid int64) (*time.Time, error) {
	var m model.Change
	err := r.dao.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("timestamp DESC, id DESC").
		First(&m).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "change last query failed")
	}
	t := time.Time(m.Timestamp)
	return &t, nil
}

// 确保 changeRepository 实现了 domain.ChangeRepository 接口
var _ domain.ChangeRepository = (*changeRepository)(nil)

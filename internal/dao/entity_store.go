package dao

import (
	"context"
	"encoding/json"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/model"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entityStore 实现 domain.EntityStore 接口
// 每种实体类型对应一张物化表，保存最近一次干净应用后的状态
type entityStore struct {
	dao *Dao
}

// NewEntityStore 创建 EntityStore 实例
func NewEntityStore(dao *Dao) domain.EntityStore {
	return &entityStore{dao: dao}
}

// Guard 锁定实体的物化行，行不存在时先插入占位墓碑
// 占位行 is_deleted=true，对 Get 不可见；冲突时的空更新让已有行吃到行锁
func (s *entityStore) Guard(ctx context.Context, uid int64, entityType domain.EntityType, entityID string) error {
	row := map[string]interface{}{
		"uid":        uid,
		"entity_id":  entityID,
		"is_deleted": true,
		"updated_at": timex.Now(),
	}

	err := s.dao.db.WithContext(ctx).
		Model(s.entityModel(entityType)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}, {Name: "entity_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"uid": uid}),
		}).
		Create(row).Error
	if err != nil {
		return pkgerrors.Wrap(err, "entity guard failed")
	}
	return nil
}

// Apply 将一次变更落到物化表
// create/update 为 upsert，delete 为标记删除（实体不存在时也落墓碑）
func (s *entityStore) Apply(ctx context.Context, uid int64, entityType domain.EntityType, entityID string, op domain.Operation, data json.RawMessage) error {
	isDeleted := op == domain.OperationDelete

	assignments := map[string]interface{}{
		"is_deleted": isDeleted,
		"updated_at": timex.Now(),
	}
	if !isDeleted {
		assignments["data"] = datatypes.JSON(data)
	}

	row := map[string]interface{}{
		"uid":        uid,
		"entity_id":  entityID,
		"data":       datatypes.JSON(data),
		"is_deleted": isDeleted,
		"updated_at": timex.Now(),
	}

	err := s.dao.db.WithContext(ctx).
		Model(s.entityModel(entityType)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}, {Name: "entity_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(row).Error
	if err != nil {
		return pkgerrors.Wrap(err, "entity apply failed")
	}
	return nil
}

// Get 获取实体当前状态
// 实体不存在或已删除时返回 found=false
func (s *entityStore) Get(ctx context.Context, uid int64, entityType domain.EntityType, entityID string) (json.RawMessage, bool, error) {
	type entityRow struct {
		Data      datatypes.JSON
		IsDeleted bool
	}

	var row entityRow
	err := s.dao.db.WithContext(ctx).
		Model(s.entityModel(entityType)).
		Select("data", "is_deleted").
		Where("uid = ? AND entity_id = ?", uid, entityID).
		First(&row).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(err, "entity query failed")
	}
	if row.IsDeleted {
		return nil, false, nil
	}
	return json.RawMessage(row.Data), true, nil
}

// entityModel 返回实体类型对应的模型
func (s *entityStore) entityModel(entityType domain.EntityType) interface{} {
	switch entityType {
	case domain.EntityTypeCategory:
		return &model.Category{}
	case domain.EntityTypeTag:
		return &model.Tag{}
	}
	return &model.KnowledgeItem{}
}

// 确保 entityStore 实现了 domain.EntityStore 接口
var _ domain.EntityStore = (*entityStore)(nil)

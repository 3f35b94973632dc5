package service

import (
	"context"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"
	"github.com/kbaselabs/knowledge-sync-service/pkg/logger"

	"go.uber.org/zap"
)

// ConflictService 定义冲突服务接口
type ConflictService interface {
	// List 分页获取未解决冲突
	List(ctx context.Context, uid int64, page, pageSize int) ([]*dto.ConflictDTO, int, error)
	// Resolve 解决冲突，选中一侧的数据作为新变更写入日志
	Resolve(ctx context.Context, uid int64, conflictID int64, params *dto.ConflictResolveRequest) (*dto.ConflictDTO, error)
}

// conflictService 实现 ConflictService 接口
type conflictService struct {
	conflictRepo domain.ConflictRepository
	tx           domain.TxRunner
	notifier     SyncNotifier
	logger       *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(conflictRepo domain.ConflictRepository, tx domain.TxRunner, notifier SyncNotifier, logger *zap.Logger) ConflictService {
	return &conflictService{
		conflictRepo: conflictRepo,
		tx:           tx,
		notifier:     notifier,
		logger:       logger,
	}
}

// List 分页获取未解决冲突
func (s *conflictService) List(ctx context.Context, uid int64, page, pageSize int) ([]*dto.ConflictDTO, int, error) {
	list, err := s.conflictRepo.ListUnresolved(ctx, uid, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	count, err := s.conflictRepo.CountUnresolved(ctx, uid)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return dto.ConflictsToDTO(list), int(count), nil
}

// Resolve 解决冲突
// 赢家数据以新变更写入日志，归属虚拟设备，已解决的冲突不可再次解决
func (s *conflictService) Resolve(ctx context.Context, uid int64, conflictID int64, params *dto.ConflictResolveRequest) (*dto.ConflictDTO, error) {
	resolution := domain.Resolution(params.Resolution)
	if !resolution.Valid() {
		return nil, code.ErrorInvalidResolution.WithDetails("unknown resolution: " + params.Resolution)
	}
	if resolution == domain.ResolutionMerge {
		return nil, code.ErrorConflictMergeUnsupported
	}

	var resolved *domain.Conflict

	err := s.tx.Transaction(ctx, func(tx domain.TxRepositories) error {
		conflict, err := tx.Conflicts().GetByID(ctx, conflictID, uid)
		if err != nil {
			return code.ErrorDBQuery.WithDetails(err.Error())
		}
		if conflict == nil {
			return code.ErrorConflictNotFound
		}
		// 已解决的冲突不再出现在未解决列表里，按不存在处理
		if conflict.IsResolved {
			return code.ErrorConflictNotFound.WithDetails("conflict already resolved")
		}

		winnerData := conflict.WinnerData(resolution)
		op := domain.OperationUpdate
		if winnerData == nil {
			op = domain.OperationDelete
		}

		now := time.Now()
		change := &domain.Change{
			UID:        uid,
			DeviceID:   domain.ResolutionDeviceID,
			EntityType: conflict.EntityType,
			EntityID:   conflict.EntityID,
			Operation:  op,
			ChangeData: winnerData,
			Timestamp:  now,
		}

		if _, err := tx.Changes().Append(ctx, change); err != nil {
			return code.ErrorDBQuery.WithDetails(err.Error())
		}
		if err := tx.Entities().Apply(ctx, uid, conflict.EntityType, conflict.EntityID, op, winnerData); err != nil {
			return code.ErrorDBQuery.WithDetails(err.Error())
		}
		if err := tx.Conflicts().MarkResolved(ctx, conflictID, uid, resolution, now); err != nil {
			return code.ErrorDBQuery.WithDetails(err.Error())
		}

		conflict.IsResolved = true
		conflict.Resolution = resolution
		conflict.ResolvedAt = &now
		resolved = conflict
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyConflictResolved(uid, conflictID, string(resolution))
	s.logger.Info("conflict resolved",
		zap.Int64(logger.FieldUID, uid),
		zap.Int64(logger.FieldConflictID, conflictID),
		zap.String("resolution", string(resolution)))

	return dto.ConflictToDTO(resolved), nil
}

// 确保 conflictService 实现了 ConflictService 接口
var _ ConflictService = (*conflictService)(nil)

package service

import (
	"context"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"
	"github.com/kbaselabs/knowledge-sync-service/pkg/logger"
	"github.com/kbaselabs/knowledge-sync-service/pkg/timex"
	"github.com/kbaselabs/knowledge-sync-service/pkg/util"

	"go.uber.org/zap"
)

// SyncService 定义同步服务接口
type SyncService interface {
	// Pull 拉取设备尚未见过的变更
	Pull(ctx context.Context, uid int64, params *dto.SyncPullRequest) (*dto.SyncPullResponse, error)
	// Push 推送一批变更，逐条检测冲突
	Push(ctx context.Context, uid int64, params *dto.SyncPushRequest) (*dto.SyncPushResponse, error)
	// Stats 获取用户同步统计
	Stats(ctx context.Context, uid int64) (*dto.SyncStatsResponse, error)
	// GlobalStats 获取全量同步统计，供后台任务使用
	GlobalStats(ctx context.Context) (*domain.GlobalSyncStats, error)
}

// syncService 实现 SyncService 接口
type syncService struct {
	cfg          ServiceConfig
	deviceSvc    DeviceService
	deviceRepo   domain.DeviceRepository
	changeRepo   domain.ChangeRepository
	conflictRepo domain.ConflictRepository
	tx           domain.TxRunner
	notifier     SyncNotifier
	logger       *zap.Logger
}

// NewSyncService 创建 SyncService 实例
func NewSyncService(
	cfg ServiceConfig,
	deviceSvc DeviceService,
	deviceRepo domain.DeviceRepository,
	changeRepo domain.ChangeRepository,
	conflictRepo domain.ConflictRepository,
	tx domain.TxRunner,
	notifier SyncNotifier,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		cfg:          cfg,
		deviceSvc:    deviceSvc,
		deviceRepo:   deviceRepo,
		changeRepo:   changeRepo,
		conflictRepo: conflictRepo,
		tx:           tx,
		notifier:     notifier,
		logger:       logger,
	}
}

// parseClientTime 解析客户端时间，兼容 RFC3339 与本地格式
func parseClientTime(in string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, in); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, in); err == nil {
		return t, nil
	}
	local, _ := time.LoadLocation("Local")
	return time.ParseInLocation(timex.TimeFormat, in, local)
}

// Pull 拉取设备尚未见过的变更
// lastSync 为空表示全量拉取，默认排除设备自身产生的变更
func (s *syncService) Pull(ctx context.Context, uid int64, params *dto.SyncPullRequest) (*dto.SyncPullResponse, error) {
	device, err := s.deviceSvc.MustGetActive(ctx, uid, params.DeviceID)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if params.LastSync != "" {
		since, err = parseClientTime(params.LastSync)
		if err != nil {
			return nil, code.ErrorInvalidTimestamp.WithDetails(params.LastSync)
		}
	}

	syncTime := time.Now()

	exclude := device.DeviceID
	if params.IncludeOwn || s.cfg.IncludeOwnChanges {
		exclude = ""
	}

	changes, err := s.changeRepo.ListSince(ctx, uid, since, exclude)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	if err := s.deviceRepo.UpdateLastSync(ctx, device.DeviceID, uid, syncTime); err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	unresolved, err := s.conflictRepo.CountUnresolved(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	s.logger.Info("changes pulled",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldDeviceID, device.DeviceID),
		zap.Int("count", len(changes)))

	return &dto.SyncPullResponse{
		Changes:      dto.GroupChangesByType(changes),
		SyncTime:     syncTime.Format(time.RFC3339),
		HasConflicts: unresolved > 0,
	}, nil
}

// pushItemError 由业务错误码构造批次条目错误
func pushItemError(index int, entityID string, c *code.Code, detail string) dto.PushItemError {
	return dto.PushItemError{
		Index:    index,
		EntityID: entityID,
		Code:     c.Code(),
		Reason:   c.Msg() + ": " + detail,
	}
}

// pushOutcome 单条变更的处理结果
type pushOutcome int

const (
	outcomeApplied pushOutcome = iota
	outcomeConflict
	outcomeSkipped
)

// Push 推送一批变更
// 逐条在独立事务内处理，校验失败的条目记录错误后继续，存储错误中断整批
func (s *syncService) Push(ctx context.Context, uid int64, params *dto.SyncPushRequest) (*dto.SyncPushResponse, error) {
	device, err := s.deviceSvc.MustGetActive(ctx, uid, params.DeviceID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SyncPushResponse{}
	var detected []*domain.Conflict

	for i, item := range params.Changes {
		entityType := domain.EntityType(item.EntityType)
		if !entityType.Valid() {
			resp.Errors = append(resp.Errors, pushItemError(i, item.EntityID, code.ErrorInvalidEntityType, item.EntityType))
			continue
		}

		op := domain.Operation(item.Operation)
		if !op.Valid() {
			resp.Errors = append(resp.Errors, pushItemError(i, item.EntityID, code.ErrorInvalidOperation, item.Operation))
			continue
		}

		ts, err := parseClientTime(item.Timestamp)
		if err != nil {
			resp.Errors = append(resp.Errors, pushItemError(i, item.EntityID, code.ErrorInvalidTimestamp, item.Timestamp))
			continue
		}

		incoming := &domain.Change{
			UID:        uid,
			DeviceID:   device.DeviceID,
			EntityType: entityType,
			EntityID:   item.EntityID,
			Operation:  op,
			ChangeData: item.ChangeData,
			Timestamp:  ts,
		}

		outcome, conflict, err := s.pushOne(ctx, uid, incoming)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}

		switch outcome {
		case outcomeApplied:
			resp.Applied++
		case outcomeConflict:
			resp.Conflicts++
			if conflict != nil {
				detected = append(detected, conflict)
			}
		case outcomeSkipped:
			resp.Skipped++
		}
	}

	syncTime := time.Now()
	if err := s.deviceRepo.UpdateLastSync(ctx, device.DeviceID, uid, syncTime); err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	resp.SyncTime = syncTime.Format(time.RFC3339)

	if resp.Applied > 0 {
		s.notifier.NotifyChangesApplied(uid, device.DeviceID, resp.Applied)
	}
	for _, c := range detected {
		s.notifier.NotifyConflictDetected(uid, c.ID, string(c.EntityType), c.EntityID)
	}

	s.logger.Info("changes pushed",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldDeviceID, device.DeviceID),
		zap.Int("applied", resp.Applied),
		zap.Int("conflicts", resp.Conflicts),
		zap.Int("skipped", resp.Skipped),
		zap.Int("errors", len(resp.Errors)))

	return resp, nil
}

// pushOne 在单个事务内处理一条变更
// 同一实体的并发推送靠事务加锁串行化，先到者赢
func (s *syncService) pushOne(ctx context.Context, uid int64, incoming *domain.Change) (pushOutcome, *domain.Conflict, error) {
	var outcome pushOutcome
	var conflict *domain.Conflict

	err := s.tx.Transaction(ctx, func(tx domain.TxRepositories) error {
		// 先占住物化行：实体还没有任何变更时日志里无行可锁，
		// 并发的首次推送都会在这里排队
		if err := tx.Entities().Guard(ctx, uid, incoming.EntityType, incoming.EntityID); err != nil {
			return err
		}

		latest, err := tx.Changes().LatestForUpdate(ctx, uid, incoming.EntityType, incoming.EntityID)
		if err != nil {
			return err
		}

		// 实体没有历史，直接干净应用
		if latest == nil {
			outcome = outcomeApplied
			return s.apply(ctx, tx, incoming)
		}

		// 同一设备：不早于最新则应用（重放幂等），否则按陈旧跳过
		if incoming.SameDevice(latest) {
			if incoming.Timestamp.Before(latest.Timestamp) {
				outcome = outcomeSkipped
				return nil
			}
			outcome = outcomeApplied
			return s.apply(ctx, tx, incoming)
		}

		// 不同设备、负载收敛：两边结果一致，照常应用
		if incoming.Operation == latest.Operation &&
			util.JSONEqual(incoming.ChangeData, latest.ChangeData) {
			outcome = outcomeApplied
			return s.apply(ctx, tx, incoming)
		}

		// 不同设备、负载分歧：记录冲突，变更不落日志
		outcome = outcomeConflict
		conflict, err = s.recordConflict(ctx, tx, uid, latest, incoming)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return outcome, conflict, nil
}

// apply 干净应用：追加日志并更新物化状态
func (s *syncService) apply(ctx context.Context, tx domain.TxRepositories, change *domain.Change) error {
	appended, err := tx.Changes().Append(ctx, change)
	if err != nil {
		return err
	}
	return tx.Entities().Apply(ctx, change.UID, change.EntityType, change.EntityID, change.Operation, appended.ChangeData)
}

// recordConflict 记录或更新冲突
// 实体已有未解决冲突时就地更新，不产生重复记录
func (s *syncService) recordConflict(ctx context.Context, tx domain.TxRepositories, uid int64, latest, incoming *domain.Change) (*domain.Conflict, error) {
	open, err := tx.Conflicts().GetOpen(ctx, uid, incoming.EntityType, incoming.EntityID)
	if err != nil {
		return nil, err
	}

	if open != nil {
		open.Device1ID = latest.DeviceID
		open.Device1Data = latest.ChangeData
		open.Device2ID = incoming.DeviceID
		open.Device2Data = incoming.ChangeData
		return tx.Conflicts().Update(ctx, open)
	}

	return tx.Conflicts().Create(ctx, &domain.Conflict{
		UID:         uid,
		EntityType:  incoming.EntityType,
		EntityID:    incoming.EntityID,
		Device1ID:   latest.DeviceID,
		Device1Data: latest.ChangeData,
		Device2ID:   incoming.DeviceID,
		Device2Data: incoming.ChangeData,
	})
}

// Stats 获取用户同步统计
func (s *syncService) Stats(ctx context.Context, uid int64) (*dto.SyncStatsResponse, error) {
	totalDevices, err := s.deviceRepo.Count(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	activeDevices, err := s.deviceRepo.CountActive(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	totalChanges, err := s.changeRepo.Count(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	unresolved, err := s.conflictRepo.CountUnresolved(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	lastSyncAt, err := s.deviceRepo.LastSyncAt(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	lastChangeAt, err := s.changeRepo.LastChangeAt(ctx, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	return dto.StatsToDTO(&domain.SyncStats{
		TotalDevices:        totalDevices,
		ActiveDevices:       activeDevices,
		TotalChanges:        totalChanges,
		UnresolvedConflicts: unresolved,
		LastSyncAt:          lastSyncAt,
		LastChangeAt:        lastChangeAt,
	}), nil
}

// GlobalStats 获取全量同步统计
func (s *syncService) GlobalStats(ctx context.Context) (*domain.GlobalSyncStats, error) {
	totalDevices, err := s.deviceRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	totalChanges, err := s.changeRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	unresolved, err := s.conflictRepo.CountUnresolvedAll(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.GlobalSyncStats{
		TotalDevices:        totalDevices,
		TotalChanges:        totalChanges,
		UnresolvedConflicts: unresolved,
	}, nil
}

// 确保 syncService 实现了 SyncService 接口
var _ SyncService = (*syncService)(nil)

package service

import (
	"context"

	"github.com/kbaselabs/knowledge-sync-service/pkg/logger"
	"github.com/kbaselabs/knowledge-sync-service/pkg/workerpool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncNotifier 同步事件通知接口
// 推送和冲突处理完成后异步触发，失败不影响主流程
type SyncNotifier interface {
	// NotifyChangesApplied 通知一批变更已应用
	NotifyChangesApplied(uid int64, deviceID string, applied int)
	// NotifyConflictDetected 通知检出新冲突
	NotifyConflictDetected(uid int64, conflictID int64, entityType, entityID string)
	// NotifyConflictResolved 通知冲突已解决
	NotifyConflictResolved(uid int64, conflictID int64, resolution string)
}

// logNotifier 基于日志的通知实现，事件投递到工作池异步执行
type logNotifier struct {
	pool   *workerpool.Pool
	logger *zap.Logger
}

// NewLogNotifier 创建 SyncNotifier 实例
func NewLogNotifier(pool *workerpool.Pool, logger *zap.Logger) SyncNotifier {
	return &logNotifier{pool: pool, logger: logger}
}

func (n *logNotifier) submit(fn func(eventID string)) {
	eventID := uuid.NewString()
	err := n.pool.Submit(func(ctx context.Context) {
		fn(eventID)
	})
	if err != nil {
		n.logger.Warn("sync event dropped", zap.Error(err))
	}
}

// NotifyChangesApplied 通知一批变更已应用
func (n *logNotifier) NotifyChangesApplied(uid int64, deviceID string, applied int) {
	n.submit(func(eventID string) {
		n.logger.Info("changes applied",
			zap.String("eventId", eventID),
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldDeviceID, deviceID),
			zap.Int("applied", applied))
	})
}

// NotifyConflictDetected 通知检出新冲突
func (n *logNotifier) NotifyConflictDetected(uid int64, conflictID int64, entityType, entityID string) {
	n.submit(func(eventID string) {
		n.logger.Info("conflict detected",
			zap.String("eventId", eventID),
			zap.Int64(logger.FieldUID, uid),
			zap.Int64(logger.FieldConflictID, conflictID),
			zap.String(logger.FieldEntityType, entityType),
			zap.String(logger.FieldEntityID, entityID))
	})
}

// NotifyConflictResolved 通知冲突已解决
func (n *logNotifier) NotifyConflictResolved(uid int64, conflictID int64, resolution string) {
	n.submit(func(eventID string) {
		n.logger.Info("conflict resolved",
			zap.String("eventId", eventID),
			zap.Int64(logger.FieldUID, uid),
			zap.Int64(logger.FieldConflictID, conflictID),
			zap.String("resolution", resolution))
	})
}

// 确保 logNotifier 实现了 SyncNotifier 接口
var _ SyncNotifier = (*logNotifier)(nil)

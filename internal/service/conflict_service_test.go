package service

import (
	"context"
	"testing"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeConflict 通过两台设备的分歧推送制造一个未解决冲突
func makeConflict(t *testing.T, env *testEnv, uid int64, entityID string) int64 {
	t.Helper()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, uid, "dev-a", changeInput(entityID, "create", `{"title":"A"}`, base.Format(time.RFC3339)))
	resp := env.push(t, uid, "dev-b", changeInput(entityID, "create", `{"title":"B"}`, base.Add(time.Second).Format(time.RFC3339)))
	require.Equal(t, 1, resp.Conflicts)

	open, err := env.conflicts.GetOpen(ctx, uid, domain.EntityTypeKnowledge, entityID)
	require.NoError(t, err)
	require.NotNil(t, open)
	return open.ID
}

func TestConflictResolveDevice2Wins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	conflictID := makeConflict(t, env, 1, "note-1")

	list, total, err := env.conflictSvc.List(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	resolved, err := env.conflictSvc.Resolve(ctx, 1, conflictID, &dto.ConflictResolveRequest{Resolution: "device2"})
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.Equal(t, "device2", resolved.Resolution)
	assert.NotNil(t, resolved.ResolvedAt)

	// 赢家数据成为实体当前状态
	data, found, err := env.entities.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"title":"B"}`, string(data))

	// 解决结果以新变更写入日志，归属虚拟设备
	changes, err := env.changes.ListSince(ctx, 1, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	last := changes[len(changes)-1]
	assert.Equal(t, domain.ResolutionDeviceID, last.DeviceID)
	assert.Equal(t, domain.OperationUpdate, last.Operation)
	assert.JSONEq(t, `{"title":"B"}`, string(last.ChangeData))

	unresolved, err := env.conflicts.CountUnresolved(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unresolved)
	assert.Equal(t, []string{"device2"}, env.notifier.resolved)

	// 已解决的冲突按不存在处理
	_, err = env.conflictSvc.Resolve(ctx, 1, conflictID, &dto.ConflictResolveRequest{Resolution: "device1"})
	assert.Equal(t, code.ErrorConflictNotFound.Code(), codeOf(t, err))
}

func TestConflictResolveDeleteWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"title":"A"}`, base.Format(time.RFC3339)))
	resp := env.push(t, 1, "dev-b", changeInput("note-1", "delete", "", base.Add(time.Second).Format(time.RFC3339)))
	require.Equal(t, 1, resp.Conflicts)

	open, err := env.conflicts.GetOpen(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.NotNil(t, open)

	// 删除一侧胜出时，解决变更为 delete，实体标记删除
	_, err = env.conflictSvc.Resolve(ctx, 1, open.ID, &dto.ConflictResolveRequest{Resolution: "device2"})
	require.NoError(t, err)

	_, found, err := env.entities.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	assert.False(t, found)

	changes, err := env.changes.ListSince(ctx, 1, time.Time{}, "")
	require.NoError(t, err)
	last := changes[len(changes)-1]
	assert.Equal(t, domain.OperationDelete, last.Operation)
}

func TestConflictResolveErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	conflictID := makeConflict(t, env, 1, "note-1")

	_, err := env.conflictSvc.Resolve(ctx, 1, conflictID, &dto.ConflictResolveRequest{Resolution: "merge"})
	assert.Equal(t, code.ErrorConflictMergeUnsupported.Code(), codeOf(t, err))

	_, err = env.conflictSvc.Resolve(ctx, 1, conflictID, &dto.ConflictResolveRequest{Resolution: "oldest"})
	assert.Equal(t, code.ErrorInvalidResolution.Code(), codeOf(t, err))

	_, err = env.conflictSvc.Resolve(ctx, 1, 99999, &dto.ConflictResolveRequest{Resolution: "device1"})
	assert.Equal(t, code.ErrorConflictNotFound.Code(), codeOf(t, err))

	// 冲突归属按用户隔离
	_, err = env.conflictSvc.Resolve(ctx, 2, conflictID, &dto.ConflictResolveRequest{Resolution: "device1"})
	assert.Equal(t, code.ErrorConflictNotFound.Code(), codeOf(t, err))

	// 以上失败都不应改变冲突状态
	unresolved, err := env.conflicts.CountUnresolved(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unresolved)
}

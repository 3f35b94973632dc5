package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/dao"
	"github.com/kbaselabs/knowledge-sync-service/internal/domain"
	"github.com/kbaselabs/knowledge-sync-service/internal/dto"
	"github.com/kbaselabs/knowledge-sync-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureNotifier 同步记录事件，替代异步通知实现
type captureNotifier struct {
	mu                sync.Mutex
	appliedTotal      int
	detectedConflicts []int64
	resolved          []string
}

func (n *captureNotifier) NotifyChangesApplied(uid int64, deviceID string, applied int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appliedTotal += applied
}

func (n *captureNotifier) NotifyConflictDetected(uid int64, conflictID int64, entityType, entityID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detectedConflicts = append(n.detectedConflicts, conflictID)
}

func (n *captureNotifier) NotifyConflictResolved(uid int64, conflictID int64, resolution string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, resolution)
}

var _ SyncNotifier = (*captureNotifier)(nil)

type testEnv struct {
	dao         *dao.Dao
	devices     domain.DeviceRepository
	changes     domain.ChangeRepository
	conflicts   domain.ConflictRepository
	entities    domain.EntityStore
	deviceSvc   DeviceService
	syncSvc     SyncService
	conflictSvc ConflictService
	notifier    *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvConns(t, 1)
}

// newTestEnvConns 按指定连接池大小建环境，并发用例需要多于一个连接
func newTestEnvConns(t *testing.T, maxOpenConns int) *testEnv {
	t.Helper()

	db, err := dao.NewDBEngine(dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "sync_test.db"),
		MaxIdleConns: 2,
		MaxOpenConns: maxOpenConns,
	}, "test")
	require.NoError(t, err)

	d := dao.New(db)
	logger := zap.NewNop()
	notifier := &captureNotifier{}

	devices := dao.NewDeviceRepository(d)
	changes := dao.NewChangeRepository(d)
	conflicts := dao.NewConflictRepository(d)
	entities := dao.NewEntityStore(d)

	deviceSvc := NewDeviceService(devices, logger)
	syncSvc := NewSyncService(DefaultServiceConfig(), deviceSvc, devices, changes, conflicts, d, notifier, logger)
	conflictSvc := NewConflictService(conflicts, d, notifier, logger)

	return &testEnv{
		dao:         d,
		devices:     devices,
		changes:     changes,
		conflicts:   conflicts,
		entities:    entities,
		deviceSvc:   deviceSvc,
		syncSvc:     syncSvc,
		conflictSvc: conflictSvc,
		notifier:    notifier,
	}
}

func (e *testEnv) register(t *testing.T, uid int64, deviceID string) {
	t.Helper()
	_, err := e.deviceSvc.Register(context.Background(), uid, &dto.DeviceRegisterRequest{
		DeviceID:   deviceID,
		DeviceName: deviceID,
		DeviceType: "desktop",
	})
	require.NoError(t, err)
}

func (e *testEnv) push(t *testing.T, uid int64, deviceID string, items ...dto.ChangeInput) *dto.SyncPushResponse {
	t.Helper()
	resp, err := e.syncSvc.Push(context.Background(), uid, &dto.SyncPushRequest{
		DeviceID: deviceID,
		Changes:  items,
	})
	require.NoError(t, err)
	return resp
}

func changeInput(entityID, op, data, ts string) dto.ChangeInput {
	in := dto.ChangeInput{
		EntityType: "knowledge",
		EntityID:   entityID,
		Operation:  op,
		Timestamp:  ts,
	}
	if data != "" {
		in.ChangeData = json.RawMessage(data)
	}
	return in
}

func codeOf(t *testing.T, err error) int {
	t.Helper()
	var c *code.Code
	require.ErrorAs(t, err, &c)
	return c.Code()
}

func TestSyncPushCleanApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")

	ts := time.Now().Add(-time.Hour).Format(time.RFC3339Nano)
	resp := env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"title":"hello"}`, ts))

	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 0, resp.Conflicts)
	assert.Equal(t, 0, resp.Skipped)
	assert.Empty(t, resp.Errors)
	assert.NotEmpty(t, resp.SyncTime)

	count, err := env.changes.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	data, found, err := env.entities.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"title":"hello"}`, string(data))

	assert.Equal(t, 1, env.notifier.appliedTotal)
}

func TestSyncPushSameDeviceReplayAndStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	t1 := base.Add(10 * time.Second).Format(time.RFC3339)

	resp := env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"v":1}`, t1))
	assert.Equal(t, 1, resp.Applied)

	// 同设备重放同一时间戳，幂等应用
	resp = env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"v":1}`, t1))
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 0, resp.Skipped)

	// 同设备更早的时间戳，按陈旧跳过
	resp = env.push(t, 1, "dev-a", changeInput("note-1", "update", `{"v":0}`, base.Format(time.RFC3339)))
	assert.Equal(t, 0, resp.Applied)
	assert.Equal(t, 1, resp.Skipped)

	// 跳过的变更不落日志
	count, err := env.changes.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSyncPushConflictOnDivergence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"title":"A"}`, base.Format(time.RFC3339)))

	resp := env.push(t, 1, "dev-b", changeInput("note-1", "create", `{"title":"B"}`, base.Add(time.Second).Format(time.RFC3339)))
	assert.Equal(t, 0, resp.Applied)
	assert.Equal(t, 1, resp.Conflicts)

	// 冲突变更不落日志，实体状态保持先到一侧
	count, err := env.changes.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	data, found, err := env.entities.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"title":"A"}`, string(data))

	open, err := env.conflicts.GetOpen(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "dev-a", open.Device1ID)
	assert.Equal(t, "dev-b", open.Device2ID)
	assert.JSONEq(t, `{"title":"B"}`, string(open.Device2Data))
	assert.Len(t, env.notifier.detectedConflicts, 1)

	// 同一实体再次分歧时就地更新冲突，不产生重复记录
	resp = env.push(t, 1, "dev-b", changeInput("note-1", "create", `{"title":"C"}`, base.Add(2*time.Second).Format(time.RFC3339)))
	assert.Equal(t, 1, resp.Conflicts)

	unresolved, err := env.conflicts.CountUnresolved(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unresolved)

	open, err = env.conflicts.GetOpen(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.JSONEq(t, `{"title":"C"}`, string(open.Device2Data))

	// 存在未解决冲突时拉取响应带冲突标记
	pull, err := env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-b"})
	require.NoError(t, err)
	assert.True(t, pull.HasConflicts)
}

func TestSyncPushConcurrentFirstWrite(t *testing.T) {
	env := newTestEnvConns(t, 4)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	type pushResult struct {
		resp *dto.SyncPushResponse
		err  error
	}
	results := make(chan pushResult, 2)

	var wg sync.WaitGroup
	doPush := func(deviceID, payload string, ts time.Time) {
		defer wg.Done()
		resp, err := env.syncSvc.Push(ctx, 1, &dto.SyncPushRequest{
			DeviceID: deviceID,
			Changes: []dto.ChangeInput{
				changeInput("note-1", "create", payload, ts.Format(time.RFC3339)),
			},
		})
		results <- pushResult{resp: resp, err: err}
	}

	wg.Add(2)
	go doPush("dev-a", `{"title":"A"}`, base)
	go doPush("dev-b", `{"title":"B"}`, base.Add(time.Second))
	wg.Wait()
	close(results)

	applied, conflicts, failures := 0, 0, 0
	for r := range results {
		if r.err != nil {
			failures++
			continue
		}
		applied += r.resp.Applied
		conflicts += r.resp.Conflicts
	}

	// 实体首次写入的并发竞争只有两种合法结局：
	// 串行化成一次应用加一次冲突，或者一边明确报错。
	// 绝不允许两边都静默应用、分歧数据无声丢失。
	assert.LessOrEqual(t, applied, 1)
	if failures == 0 {
		assert.Equal(t, 1, applied)
		assert.Equal(t, 1, conflicts)
	}

	// 冲突一侧的变更不落日志
	count, err := env.changes.Count(ctx, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, int64(1))

	unresolved, err := env.conflicts.CountUnresolved(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(conflicts), unresolved)

	// 实体状态只能是其中一侧的负载
	if applied == 1 {
		data, found, err := env.entities.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Contains(t, []string{`{"title":"A"}`, `{"title":"B"}`}, string(data))
	}
}

func TestSyncPushConvergentDuplicateApplies(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"title":"same"}`, base.Format(time.RFC3339)))

	// 负载语义一致，键顺序和空白不同不算分歧
	resp := env.push(t, 1, "dev-b", changeInput("note-1", "create", `{ "title" : "same" }`, base.Add(time.Second).Format(time.RFC3339)))
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 0, resp.Conflicts)
}

func TestSyncPushValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, 1, "dev-a")

	ts := time.Now().Add(-time.Hour).Format(time.RFC3339)
	resp := env.push(t, 1, "dev-a",
		dto.ChangeInput{EntityType: "bookmark", EntityID: "x-1", Operation: "create", Timestamp: ts},
		dto.ChangeInput{EntityType: "knowledge", EntityID: "x-2", Operation: "create", Timestamp: "not-a-time"},
		changeInput("x-3", "create", `{"ok":true}`, ts),
		dto.ChangeInput{EntityType: "knowledge", EntityID: "x-4", Operation: "rename", Timestamp: ts},
	)

	// 非法条目逐条报告，携带对应错误码，不拖累同批的合法条目
	assert.Equal(t, 1, resp.Applied)
	require.Len(t, resp.Errors, 3)
	assert.Equal(t, 0, resp.Errors[0].Index)
	assert.Equal(t, "x-1", resp.Errors[0].EntityID)
	assert.Equal(t, code.ErrorInvalidEntityType.Code(), resp.Errors[0].Code)
	assert.Equal(t, 1, resp.Errors[1].Index)
	assert.Equal(t, code.ErrorInvalidTimestamp.Code(), resp.Errors[1].Code)
	assert.Equal(t, 3, resp.Errors[2].Index)
	assert.Equal(t, code.ErrorInvalidOperation.Code(), resp.Errors[2].Code)
}

func TestSyncPushDeviceChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ts := time.Now().Format(time.RFC3339)
	_, err := env.syncSvc.Push(ctx, 1, &dto.SyncPushRequest{
		DeviceID: "ghost",
		Changes:  []dto.ChangeInput{changeInput("note-1", "create", `{}`, ts)},
	})
	assert.Equal(t, code.ErrorDeviceNotFound.Code(), codeOf(t, err))

	env.register(t, 1, "dev-a")
	require.NoError(t, env.deviceSvc.Deactivate(ctx, 1, "dev-a"))

	_, err = env.syncSvc.Push(ctx, 1, &dto.SyncPushRequest{
		DeviceID: "dev-a",
		Changes:  []dto.ChangeInput{changeInput("note-1", "create", `{}`, ts)},
	})
	assert.Equal(t, code.ErrorDeviceInactive.Code(), codeOf(t, err))
}

func TestSyncPull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, 1, "dev-a",
		changeInput("note-1", "create", `{"n":1}`, base.Format(time.RFC3339)),
		changeInput("note-2", "create", `{"n":2}`, base.Add(time.Second).Format(time.RFC3339)),
		dto.ChangeInput{
			EntityType: "category",
			EntityID:   "cat-1",
			Operation:  "create",
			ChangeData: json.RawMessage(`{"name":"inbox"}`),
			Timestamp:  base.Add(2 * time.Second).Format(time.RFC3339),
		},
	)

	// 其他设备全量拉取，变更按实体类型分组，空分组也始终返回
	resp, err := env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-b"})
	require.NoError(t, err)
	require.Len(t, resp.Changes, 3)
	assert.Len(t, resp.Changes["knowledge"], 2)
	assert.Len(t, resp.Changes["category"], 1)
	assert.Empty(t, resp.Changes["tag"])
	assert.NotEmpty(t, resp.SyncTime)
	assert.False(t, resp.HasConflicts)

	// 组内按客户端时间戳排序
	assert.Equal(t, "note-1", resp.Changes["knowledge"][0].EntityID)
	assert.Equal(t, "note-2", resp.Changes["knowledge"][1].EntityID)

	// 默认排除设备自身产生的变更
	resp, err = env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-a"})
	require.NoError(t, err)
	assert.Empty(t, resp.Changes["knowledge"])
	assert.Empty(t, resp.Changes["category"])

	// includeOwn 时回传自身变更
	resp, err = env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-a", IncludeOwn: true})
	require.NoError(t, err)
	assert.Len(t, resp.Changes["knowledge"], 2)

	// lastSync 在最后一次落库之后，增量为空
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	resp, err = env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-b", LastSync: future})
	require.NoError(t, err)
	assert.Empty(t, resp.Changes["knowledge"])
	assert.Empty(t, resp.Changes["category"])

	// 拉取会刷新设备最后同步时间
	device, err := env.devices.GetByDeviceID(ctx, "dev-b", 1)
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.NotNil(t, device.LastSync)

	_, err = env.syncSvc.Pull(ctx, 1, &dto.SyncPullRequest{DeviceID: "dev-b", LastSync: "yesterday"})
	assert.Equal(t, code.ErrorInvalidTimestamp.Code(), codeOf(t, err))
}

func TestSyncPullIsolatesUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 2, "dev-z")

	ts := time.Now().Add(-time.Hour).Format(time.RFC3339)
	env.push(t, 1, "dev-a", changeInput("note-1", "create", `{"n":1}`, ts))

	resp, err := env.syncSvc.Pull(ctx, 2, &dto.SyncPullRequest{DeviceID: "dev-z"})
	require.NoError(t, err)
	assert.Empty(t, resp.Changes["knowledge"])

	// 设备归属按用户隔离
	_, err = env.syncSvc.Pull(ctx, 2, &dto.SyncPullRequest{DeviceID: "dev-a"})
	assert.Equal(t, code.ErrorDeviceNotFound.Code(), codeOf(t, err))
}

func TestSyncStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, 1, "dev-a")
	env.register(t, 1, "dev-b")
	require.NoError(t, env.deviceSvc.Deactivate(ctx, 1, "dev-b"))

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	env.push(t, 1, "dev-a",
		changeInput("note-1", "create", `{"n":1}`, base.Format(time.RFC3339)),
		changeInput("note-2", "create", `{"n":2}`, base.Add(time.Second).Format(time.RFC3339)),
	)

	stats, err := env.syncSvc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDevices)
	assert.Equal(t, int64(1), stats.ActiveDevices)
	assert.Equal(t, int64(2), stats.TotalChanges)
	assert.Equal(t, int64(0), stats.UnresolvedConflicts)
	assert.NotNil(t, stats.LastSync)
	assert.NotNil(t, stats.LastChangeAt)

	global, err := env.syncSvc.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), global.TotalDevices)
	assert.Equal(t, int64(2), global.TotalChanges)
	assert.Equal(t, int64(0), global.UnresolvedConflicts)
}

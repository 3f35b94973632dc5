package dao

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbaselabs/knowledge-sync-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	db, err := NewDBEngine(DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "dao_test.db"),
		MaxIdleConns: 2,
		MaxOpenConns: 1,
	}, "test")
	require.NoError(t, err)
	return New(db)
}

func TestEntityStoreApplyLifecycle(t *testing.T) {
	d := newTestDao(t)
	store := NewEntityStore(d)
	ctx := context.Background()

	// 不存在的实体
	_, found, err := store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	assert.False(t, found)

	// create
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "note-1", domain.OperationCreate, json.RawMessage(`{"v":1}`)))
	data, found, err := store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":1}`, string(data))

	// update 覆盖数据
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "note-1", domain.OperationUpdate, json.RawMessage(`{"v":2}`)))
	data, found, err = store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(data))

	// delete 标记删除
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "note-1", domain.OperationDelete, nil))
	_, found, err = store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	assert.False(t, found)

	// 删除后重新创建恢复实体
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "note-1", domain.OperationCreate, json.RawMessage(`{"v":3}`)))
	data, found, err = store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":3}`, string(data))
}

func TestEntityStoreGuard(t *testing.T) {
	d := newTestDao(t)
	store := NewEntityStore(d)
	ctx := context.Background()

	// 占位行对 Get 不可见
	require.NoError(t, store.Guard(ctx, 1, domain.EntityTypeKnowledge, "note-1"))
	_, found, err := store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	assert.False(t, found)

	// 占位后照常应用首个变更
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "note-1", domain.OperationCreate, json.RawMessage(`{"v":1}`)))
	data, found, err := store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":1}`, string(data))

	// 行已存在时 Guard 不改动实体状态
	require.NoError(t, store.Guard(ctx, 1, domain.EntityTypeKnowledge, "note-1"))
	data, found, err = store.Get(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":1}`, string(data))
}

func TestEntityStoreIsolation(t *testing.T) {
	d := newTestDao(t)
	store := NewEntityStore(d)
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeKnowledge, "shared-id", domain.OperationCreate, json.RawMessage(`{"owner":1}`)))
	require.NoError(t, store.Apply(ctx, 2, domain.EntityTypeKnowledge, "shared-id", domain.OperationCreate, json.RawMessage(`{"owner":2}`)))
	require.NoError(t, store.Apply(ctx, 1, domain.EntityTypeCategory, "shared-id", domain.OperationCreate, json.RawMessage(`{"kind":"category"}`)))

	// 相同 entity_id 在不同用户、不同类型下互不影响
	data, found, err := store.Get(ctx, 1, domain.EntityTypeKnowledge, "shared-id")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"owner":1}`, string(data))

	data, found, err = store.Get(ctx, 2, domain.EntityTypeKnowledge, "shared-id")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"owner":2}`, string(data))

	data, found, err = store.Get(ctx, 1, domain.EntityTypeCategory, "shared-id")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"kind":"category"}`, string(data))
}

func TestChangeRepositoryLatestOrdering(t *testing.T) {
	d := newTestDao(t)
	repo := NewChangeRepository(d)
	ctx := context.Background()

	latest, err := repo.Latest(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	_, err = repo.Append(ctx, &domain.Change{
		UID: 1, DeviceID: "dev-a", EntityType: domain.EntityTypeKnowledge, EntityID: "note-1",
		Operation: domain.OperationCreate, ChangeData: json.RawMessage(`{"v":1}`), Timestamp: base,
	})
	require.NoError(t, err)
	_, err = repo.Append(ctx, &domain.Change{
		UID: 1, DeviceID: "dev-b", EntityType: domain.EntityTypeKnowledge, EntityID: "note-1",
		Operation: domain.OperationUpdate, ChangeData: json.RawMessage(`{"v":2}`), Timestamp: base.Add(10 * time.Second),
	})
	require.NoError(t, err)

	// 按客户端时间戳取最新
	latest, err = repo.Latest(ctx, 1, domain.EntityTypeKnowledge, "note-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "dev-b", latest.DeviceID)
	assert.Equal(t, domain.OperationUpdate, latest.Operation)

	lastAt, err := repo.LastChangeAt(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, lastAt)
}

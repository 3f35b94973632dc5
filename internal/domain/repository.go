package domain

import (
	"context"
	"encoding/json"
	"time"
)

// DeviceRepository 设备数据访问接口
type DeviceRepository interface {
	// GetByDeviceID 根据设备标识获取设备
	GetByDeviceID(ctx context.Context, deviceID string, uid int64) (*Device, error)
	// Create 创建设备
	Create(ctx context.Context, device *Device) (*Device, error)
	// Update 更新设备名称与类型
	Update(ctx context.Context, device *Device) (*Device, error)
	// List 获取用户全部设备
	List(ctx context.Context, uid int64) ([]*Device, error)
	// SetActive 更新设备启用状态
	SetActive(ctx context.Context, deviceID string, uid int64, active bool) error
	// UpdateLastSync 更新设备最后同步时间
	UpdateLastSync(ctx context.Context, deviceID string, uid int64, t time.Time) error
	// Count 获取用户设备数量
	Count(ctx context.Context, uid int64) (int64, error)
	// CountActive 获取用户启用设备数量
	CountActive(ctx context.Context, uid int64) (int64, error)
	// LastSyncAt 获取用户全部设备中最近的同步时间，从未同步过返回 nil
	LastSyncAt(ctx context.Context, uid int64) (*time.Time, error)
	// CountAll 获取全部设备数量
	CountAll(ctx context.Context) (int64, error)
}

// ChangeRepository 变更日志数据访问接口，日志只追加不修改
type ChangeRepository interface {
	// Append 追加一条变更
	Append(ctx context.Context, change *Change) (*Change, error)
	// ListSince 获取某时间之后的变更，excludeDeviceID 非空时排除该设备产生的变更
	ListSince(ctx context.Context, uid int64, since time.Time, excludeDeviceID string) ([]*Change, error)
	// Latest 获取实体的最新变更，按客户端时间戳排序
	Latest(ctx context.Context, uid int64, entityType EntityType, entityID string) (*Change, error)
	// LatestForUpdate 同 Latest，但在事务内加行锁
	LatestForUpdate(ctx context.Context, uid int64, entityType EntityType, entityID string) (*Change, error)
	// Count 获取用户变更总数
	Count(ctx context.Context, uid int64) (int64, error)
	// CountAll 获取全部变更数量
	CountAll(ctx context.Context) (int64, error)
	// LastChangeAt 获取用户最近一次变更的客户端时间
	LastChangeAt(ctx context.Context, uid int64) (*time.Time, error)
}

// ConflictRepository 冲突数据访问接口
type ConflictRepository interface {
	// Create 创建冲突记录
	Create(ctx context.Context, conflict *Conflict) (*Conflict, error)
	// Update 更新冲突记录
	Update(ctx context.Context, conflict *Conflict) (*Conflict, error)
	// GetByID 根据ID获取冲突
	GetByID(ctx context.Context, id, uid int64) (*Conflict, error)
	// GetOpen 获取实体的未解决冲突
	GetOpen(ctx context.Context, uid int64, entityType EntityType, entityID string) (*Conflict, error)
	// ListUnresolved 分页获取未解决冲突
	ListUnresolved(ctx context.Context, uid int64, page, pageSize int) ([]*Conflict, error)
	// CountUnresolved 获取用户未解决冲突数量
	CountUnresolved(ctx context.Context, uid int64) (int64, error)
	// CountUnresolvedAll 获取全部未解决冲突数量
	CountUnresolvedAll(ctx context.Context) (int64, error)
	// MarkResolved 标记冲突为已解决
	MarkResolved(ctx context.Context, id, uid int64, resolution Resolution, resolvedAt time.Time) error
}

// EntityStore 实体物化状态访问接口
// 干净应用变更时同步更新，用于查询实体当前状态
type EntityStore interface {
	// Guard 在事务内锁定实体的物化行，行不存在时先插入占位墓碑
	// 变更日志里还没有行时也有锁可加，同一实体的并发首次推送靠它串行化
	Guard(ctx context.Context, uid int64, entityType EntityType, entityID string) error
	// Apply 将一次变更落到物化表，create/update 为 upsert，delete 为标记删除
	Apply(ctx context.Context, uid int64, entityType EntityType, entityID string, op Operation, data json.RawMessage) error
	// Get 获取实体当前状态，不存在时返回 nil
	Get(ctx context.Context, uid int64, entityType EntityType, entityID string) (json.RawMessage, bool, error)
}

// TxRepositories 事务内可用的数据访问集合
type TxRepositories interface {
	Devices() DeviceRepository
	Changes() ChangeRepository
	Conflicts() ConflictRepository
	Entities() EntityStore
}

// TxRunner 在单个数据库事务内执行 fn
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx TxRepositories) error) error
}

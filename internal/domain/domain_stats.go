package domain

import "time"

// SyncStats 单个用户的同步统计
type SyncStats struct {
	TotalDevices        int64
	ActiveDevices       int64
	TotalChanges        int64
	UnresolvedConflicts int64
	LastSyncAt          *time.Time
	LastChangeAt        *time.Time
}

// GlobalSyncStats 全量同步统计，用于后台任务输出
type GlobalSyncStats struct {
	TotalDevices        int64
	TotalChanges        int64
	UnresolvedConflicts int64
}

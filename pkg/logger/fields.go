package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldDeviceID 设备 ID 字段
	FieldDeviceID = "deviceId"

	// FieldEntityType 实体类型字段
	FieldEntityType = "entityType"

	// FieldEntityID 实体 ID 字段
	FieldEntityID = "entityId"

	// FieldOperation 操作类型字段
	FieldOperation = "operation"

	// FieldConflictID 冲突 ID 字段
	FieldConflictID = "conflictId"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"
)

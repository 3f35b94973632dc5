package code

// 同步业务错误码 20000000 起
var (
	// ErrorDeviceNotFound 设备不存在或不属于当前用户
	ErrorDeviceNotFound = NewError(20000001, lang{en: "Device Not Found", zh_cn: "设备不存在"})
	// ErrorDeviceInactive 设备已停用，需重新注册激活
	ErrorDeviceInactive = NewError(20000003, lang{en: "Device Is Deactivated", zh_cn: "设备已停用"})
	// ErrorInvalidEntityType 未知实体类型
	ErrorInvalidEntityType = NewError(20000004, lang{en: "Unknown Entity Type", zh_cn: "未知实体类型"})
	// ErrorInvalidOperation 未知操作类型
	ErrorInvalidOperation = NewError(20000005, lang{en: "Unknown Operation", zh_cn: "未知操作类型"})
	// ErrorInvalidTimestamp 时间戳无法解析（需 ISO-8601）
	ErrorInvalidTimestamp = NewError(20000006, lang{en: "Invalid Timestamp", zh_cn: "时间戳格式错误"})
	// ErrorConflictNotFound 冲突不存在、已解决或不属于当前用户
	ErrorConflictNotFound = NewError(20000007, lang{en: "Conflict Not Found", zh_cn: "冲突不存在"})
	// ErrorConflictMergeUnsupported merge 解决策略未实现
	ErrorConflictMergeUnsupported = NewError(20000008, lang{en: "Merge Resolution Is Not Supported", zh_cn: "暂不支持 merge 解决策略"})
	// ErrorInvalidResolution 非法的解决策略
	ErrorInvalidResolution = NewError(20000009, lang{en: "Invalid Resolution", zh_cn: "非法的解决策略"})
)

package code

// 通用成功 / 失败码
var (
	Success = NewSuss(0, lang{en: "Success", zh_cn: "成功"})
	Failed  = NewError(1, lang{en: "Failed", zh_cn: "失败"})
)

// 服务级错误码 10000000 起
var (
	ErrorServerInternal       = NewError(10000000, lang{en: "Server Internal Error", zh_cn: "服务内部错误"})
	ErrorInvalidParams        = NewError(10000001, lang{en: "Invalid Params", zh_cn: "入参错误"})
	ErrorNotFoundAPI          = NewError(10000002, lang{en: "Not Found API", zh_cn: "找不到对应接口"})
	ErrorTooManyRequests      = NewError(10000003, lang{en: "Too Many Requests", zh_cn: "请求过多"})
	ErrorNotUserAuthToken     = NewError(10000004, lang{en: "Missing Auth Token", zh_cn: "缺少认证 Token"})
	ErrorInvalidUserAuthToken = NewError(10000005, lang{en: "Invalid Auth Token", zh_cn: "认证 Token 无效"})
	ErrorDBQuery              = NewError(10000006, lang{en: "Database Query Error", zh_cn: "数据库查询错误"})
	ErrorRequestTimeout       = NewError(10000007, lang{en: "Request Timeout", zh_cn: "请求超时"})
)

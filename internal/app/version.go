package app

// Name 应用名称
const Name = "Knowledge Sync Service"

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	GitTag    = ""
	BuildTime = ""
)

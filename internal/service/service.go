// Package service 实现业务逻辑层
package service

// ServiceConfig 服务层配置
type ServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	// IncludeOwnChanges 拉取时是否默认返回设备自身产生的变更
	IncludeOwnChanges bool
}

// DefaultServiceConfig 默认服务层配置
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultPageSize:   10,
		MaxPageSize:       100,
		IncludeOwnChanges: false,
	}
}

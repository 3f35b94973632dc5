// Package limiter 提供基于令牌桶的接口限流
package limiter

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	// Key 从请求中提取限流 key
	Key(c *gin.Context) string
	// GetBucket 获取 key 对应的令牌桶
	GetBucket(key string) (*ratelimit.Bucket, bool)
	// AddBuckets 注册限流规则
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 单条限流规则
type BucketRule struct {
	// Key 匹配的 URI 前缀
	Key string
	// FillInterval 令牌填充间隔
	FillInterval time.Duration
	// Capacity 桶容量
	Capacity int64
	// Quantum 每次填充的令牌数
	Quantum int64
}

// MethodLimiter 按 URI 前缀限流
type MethodLimiter struct {
	buckets map[string]*ratelimit.Bucket
}

// NewMethodLimiter 创建按接口限流的限流器
func NewMethodLimiter() Face {
	return &MethodLimiter{
		buckets: map[string]*ratelimit.Bucket{},
	}
}

// Key 取 URI 的 path 部分作为限流 key
func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	index := strings.Index(uri, "?")
	if index == -1 {
		return uri
	}
	return uri[:index]
}

// GetBucket 按前缀匹配规则桶
func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	for prefix, bucket := range l.buckets {
		if strings.Contains(key, prefix) {
			return bucket, true
		}
	}
	return nil, false
}

// AddBuckets 注册限流规则
func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; !ok {
			l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
		}
	}
	return l
}

// Package convert 提供字符串与基础类型转换辅助
package convert

import "strconv"

// StrTo 字符串转换器
type StrTo string

func (s StrTo) String() string {
	return string(s)
}

func (s StrTo) Int() (int, error) {
	v, err := strconv.Atoi(s.String())
	return v, err
}

// MustInt 转换失败时返回 0
func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

func (s StrTo) Int64() (int64, error) {
	v, err := strconv.ParseInt(s.String(), 10, 64)
	return v, err
}

// MustInt64 转换失败时返回 0
func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}

func (s StrTo) UInt32() (uint32, error) {
	v, err := strconv.Atoi(s.String())
	return uint32(v), err
}

// MustUInt32 转换失败时返回 0
func (s StrTo) MustUInt32() uint32 {
	v, _ := s.UInt32()
	return v
}

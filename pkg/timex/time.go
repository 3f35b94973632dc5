// Package timex 提供数据库与 JSON 序列化统一使用的时间类型
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeFormat 序列化使用的时间格式
const TimeFormat = "2006-01-02 15:04:05"

// Time 封装 time.Time，JSON 输出为 "2006-01-02 15:04:05"
type Time time.Time

// Now 返回当前时间
func Now() Time {
	return Time(time.Now())
}

// MarshalJSON 实现 json.Marshaler
func (t Time) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(fmt.Sprintf("%q", tt.Format(TimeFormat))), nil
}

// UnmarshalJSON 实现 json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*t = Time(time.Time{})
		return nil
	}
	tt, err := time.ParseInLocation(`"`+TimeFormat+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(tt)
	return nil
}

// Value 实现 driver.Valuer，供 GORM 写库使用
func (t Time) Value() (driver.Value, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return nil, nil
	}
	return tt, nil
}

// Scan 实现 sql.Scanner，供 GORM 读库使用
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case time.Time:
		*t = Time(value)
		return nil
	case []byte:
		tt, err := time.ParseInLocation(TimeFormat, string(value), time.Local)
		if err != nil {
			return err
		}
		*t = Time(tt)
		return nil
	case string:
		tt, err := time.ParseInLocation(TimeFormat, value, time.Local)
		if err != nil {
			return err
		}
		*t = Time(tt)
		return nil
	case nil:
		*t = Time(time.Time{})
		return nil
	}
	return fmt.Errorf("can not convert %v to timex.Time", v)
}

// Time 转回标准库时间
func (t Time) Time() time.Time {
	return time.Time(t)
}

// IsZero 是否为零值时间
func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

// Unix 秒级时间戳
func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

// UnixMilli 毫秒级时间戳
func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

// UnixMicro 微秒级时间戳
func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

// UnixNano 纳秒级时间戳
func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

// String 实现 fmt.Stringer
func (t Time) String() string {
	return time.Time(t).Format(TimeFormat)
}

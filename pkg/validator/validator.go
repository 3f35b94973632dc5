// Package validator 封装 gin binding 使用的自定义验证器
package validator

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	validatorV10 "github.com/go-playground/validator/v10"
)

// CustomValidator 实现 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	validate *validatorV10.Validate
}

// NewCustomValidator 创建自定义验证器
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

var _ binding.StructValidator = (*CustomValidator)(nil)

// ValidateStruct 验证结构体（含指针解引用）
func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	value := reflect.ValueOf(obj)
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		return v.ValidateStruct(value.Elem().Interface())
	case reflect.Struct:
		v.lazyinit()
		return v.validate.Struct(obj)
	}
	return nil
}

// Engine 返回底层 validator 实例
func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validatorV10.New()
		v.validate.SetTagName("binding")
	})
}

// RegisterCustom 注册项目级自定义验证规则
// 目前没有需要的自定义规则，保留注册入口
func RegisterCustom() {
}

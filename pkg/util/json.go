package util

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// JSONEqual reports whether two JSON documents are semantically equal
// JSONEqual 判断两段 JSON 文档语义上是否相等
// 键顺序和空白差异不影响比较结果
func JSONEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

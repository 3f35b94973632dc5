package util

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestJSONEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", `{"a":1}`, `{"a":1}`, true},
		{"key order", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"whitespace", `{"a":1}`, ` { "a" : 1 } `, true},
		{"nested", `{"a":{"b":[1,2]}}`, `{"a": {"b": [1, 2]}}`, true},
		{"different value", `{"a":1}`, `{"a":2}`, false},
		{"different keys", `{"a":1}`, `{"b":1}`, false},
		{"array order matters", `[1,2]`, `[2,1]`, false},
		{"invalid left", `{`, `{}`, false},
		{"invalid right", `{}`, `{`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, JSONEqual([]byte(tc.a), []byte(tc.b)))
		})
	}
}

// genJSONDoc 生成扁平的 JSON 对象文档
func genJSONDoc() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.Int64()).Map(func(m map[string]int64) []byte {
		b, _ := json.Marshal(m)
		return b
	})
}

func TestJSONEqualProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("reflexive", prop.ForAll(
		func(doc []byte) bool {
			return JSONEqual(doc, doc)
		},
		genJSONDoc(),
	))

	properties.Property("symmetric", prop.ForAll(
		func(a, b []byte) bool {
			return JSONEqual(a, b) == JSONEqual(b, a)
		},
		genJSONDoc(),
		genJSONDoc(),
	))

	properties.Property("whitespace insensitive", prop.ForAll(
		func(doc []byte) bool {
			var v interface{}
			if err := json.Unmarshal(doc, &v); err != nil {
				return false
			}
			indented, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return false
			}
			return JSONEqual(doc, indented)
		},
		genJSONDoc(),
	))

	properties.TestingRun(t)
}

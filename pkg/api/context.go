package api

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Context carries the arbitrary key-value payload a flow instance was
// started with. Values follow JSON typing conventions
type Context map[string]any

// Equal reports whether two contexts are structurally equal. Comparison is
// performed over canonical JSON so that a context built in memory matches
// the same context read back from a log record
func (c Context) Equal(other Context) bool {
	if len(c) != len(other) {
		return false
	}
	if len(c) == 0 {
		return true
	}
	left, err := json.Marshal(c)
	if err != nil {
		return reflect.DeepEqual(c, other)
	}
	right, err := json.Marshal(other)
	if err != nil {
		return reflect.DeepEqual(c, other)
	}
	return bytes.Equal(left, right)
}

// Truthy reports whether the named key holds a truthy value. Missing keys,
// nil, false, zero numbers, empty strings, and empty collections are falsy
func (c Context) Truthy(key string) bool {
	v, ok := c[key]
	if !ok {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		return v.String() != "0" && v.String() != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

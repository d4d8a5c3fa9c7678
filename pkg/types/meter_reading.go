package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/obis"
)

// Fields is one decoded meter reading keyed by field name. Values are string,
// int64, float64 or time.Time.
type Fields map[string]any

func (f Fields) Text(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

func (f Fields) Int(key string) (int64, bool) {
	v, ok := f[key].(int64)
	return v, ok
}

// Float returns a float64 or int64 value as float64.
func (f Fields) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (f Fields) Time(key string) (time.Time, bool) {
	v, ok := f[key].(time.Time)
	return v, ok
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f Fields) Clone() Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// UnmarshalJSON restores value types from the field table, since JSON does
// not tell int64 from float64 or a timestamp from a string.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	table := obis.DefaultTable()
	out := make(Fields, len(raw))
	for key, value := range raw {
		kind, known := table.FieldKind(key)
		v, err := decodeFieldValue(value, kind, known)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		out[key] = v
	}
	*f = out
	return nil
}

func decodeFieldValue(value json.RawMessage, kind obis.Kind, known bool) (any, error) {
	if !known {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, err
		}
		if n, ok := v.(float64); ok && n == float64(int64(n)) {
			return int64(n), nil
		}
		return v, nil
	}

	switch kind {
	case obis.KindInt:
		var n float64
		if err := json.Unmarshal(value, &n); err != nil {
			return nil, err
		}
		return int64(n), nil
	case obis.KindFloat:
		var n float64
		err := json.Unmarshal(value, &n)
		return n, err
	case obis.KindTime:
		var t time.Time
		err := json.Unmarshal(value, &t)
		return t, err
	default:
		var s string
		err := json.Unmarshal(value, &s)
		return s, err
	}
}

package config

import (
	"time"

	"github.com/dshills/humane/internal/config/loader"
)

// decoder reads typed values out of a merged configuration map. Missing
// settings read as zero values; mismatched ones are recorded.
type decoder struct {
	values map[string]any
	errs   []error
}

func (d *decoder) get(path string) (any, bool) {
	return loader.Lookup(d.values, path)
}

func (d *decoder) mismatch(path, expected string, v any) {
	d.errs = append(d.errs, &TypeError{Path: path, Expected: expected, Actual: typeName(v)})
}

func (d *decoder) string(path string) string {
	v, ok := d.get(path)
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.mismatch(path, "string", v)
	}
	return s
}

func (d *decoder) int(path string) int {
	v, ok := d.get(path)
	if !ok {
		return 0
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	d.mismatch(path, "int", v)
	return 0
}

// duration accepts a Go duration string or a number of seconds.
func (d *decoder) duration(path string) time.Duration {
	v, ok := d.get(path)
	if !ok {
		return 0
	}
	switch val := v.(type) {
	case time.Duration:
		return val
	case string:
		if val == "" {
			return 0
		}
		if dur, err := time.ParseDuration(val); err == nil {
			return dur
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	d.mismatch(path, "duration", v)
	return 0
}

func (d *decoder) strings(path string) []string {
	v, ok := d.get(path)
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case string:
		return []string{val}
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				d.mismatch(path, "[]string", v)
				return nil
			}
			result = append(result, s)
		}
		return result
	}
	d.mismatch(path, "[]string", v)
	return nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return "unknown"
	}
}

// Package attrs reads values back out of slog-style key/value attribute lists.
package attrs

import "fmt"

// ExtractString extracts a value from a key-value attribute slice formatted
// as [key1, value1, key2, value2, ...]. Strings are returned as-is and
// fmt.Stringer values (typed IDs) are rendered. Returns empty string if the
// key is absent or the value is neither.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}

// Without returns attrs minus every pair whose key is in keys.
func Without(attrs []any, keys ...string) []any {
	out := make([]any, 0, len(attrs))
	for i := 0; i+1 < len(attrs); i += 2 {
		k, _ := attrs[i].(string)
		drop := false
		for _, key := range keys {
			if k == key {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, attrs[i], attrs[i+1])
		}
	}
	return out
}

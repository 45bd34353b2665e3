package config

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config wraps a decoded YAML or JSON document for typed lookups.
// Accessors return the default when a key is missing or holds a value of
// the wrong type. Keys may be dotted paths into nested maps ("takt.strict").
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	sub, ok := asMap(c.data[head])
	if !ok {
		return nil, false
	}
	return Config{data: sub}.lookup(rest)
}

// String returns the string value for key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.lookupString(key); ok {
		return s
	}
	return defaultVal
}

func (c Config) lookupString(key string) (string, bool) {
	v, ok := c.lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean value for key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal.
// A float64 is accepted only if it has no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	if f, ok := c.lookupFloat(key); ok {
		return f
	}
	return defaultVal
}

func (c Config) lookupFloat(key string) (float64, bool) {
	v, ok := c.lookup(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Seconds returns a duration in seconds for key, or defaultVal.
//
// Accepts:
//   - int, int64, float64: seconds
//   - string: a Go duration ("250ms", "1m30s") or a plain number of seconds
//   - time.Duration
func (c Config) Seconds(key string, defaultVal float64) float64 {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	if s, ok := ParseSeconds(v); ok {
		return s
	}
	return defaultVal
}

// ParseSeconds converts a YAML/JSON scalar to seconds, using the same
// rules as Config.Seconds.
func ParseSeconds(v any) (float64, bool) {
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d.Seconds(), true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f, true
		}
		return 0, false
	case time.Duration:
		return val.Seconds(), true
	}
	return toFloat(v)
}

// StringSlice returns the string slice for key, or defaultVal.
// A []any is accepted only if every element is a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// Sub returns the nested map under key as a Config. Missing or non-map
// values give an empty Config.
func (c Config) Sub(key string) Config {
	v, _ := c.lookup(key)
	m, _ := asMap(v)
	return New(m)
}

// SecondsMap returns the nested map under key with every value converted
// to seconds. Entries that are not durations are skipped.
func (c Config) SecondsMap(key string) map[string]float64 {
	sub := c.Sub(key)
	out := make(map[string]float64, len(sub.data))
	for k, v := range sub.data {
		if s, ok := ParseSeconds(v); ok {
			out[k] = s
		}
	}
	return out
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Keys returns the top-level keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

// asMap accepts both map[string]any (JSON, yaml.v3) and map[any]any.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

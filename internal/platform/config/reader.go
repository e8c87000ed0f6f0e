package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "connviewer/internal/platform/errors"
)

// reader pulls typed values out of Settings and collects every type error so
// a broken settings file is reported in one go.
type reader struct {
	s    Settings
	errs []error
}

func (r *reader) fail(key string, want string, got any) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s: expected %s, got %T (%v)", apperrors.ErrInvalidConfig, key, want, got, got))
}

func (r *reader) err() error {
	return errors.Join(r.errs...)
}

func (r *reader) lookup(key string) (any, bool) {
	v, ok := r.s[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *reader) str(key, def string) string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case int, int64, float64, bool:
		return fmt.Sprint(t)
	}
	r.fail(key, "string", v)
	return def
}

// column reads a column name that can be switched off: an explicit null or an
// empty string disables the derived column, a missing key keeps the default.
func (r *reader) column(key, def string) string {
	v, present := r.s[key]
	if !present {
		return def
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(r.str(key, def))
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err == nil {
			return b
		}
	case int:
		return t != 0
	}
	r.fail(key, "bool", v)
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case string:
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(t), "_", ""))
		if err == nil {
			return n
		}
	}
	r.fail(key, "integer", v)
	return def
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(key, "number", v)
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(t))
		if err == nil {
			return d
		}
	case int:
		return time.Duration(t) * time.Second
	}
	r.fail(key, "duration", v)
	return def
}

// floats accepts a YAML list or a comma separated string such as "4,4,40".
func (r *reader) floats(key string) []float64 {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		out, err := ParseVector(t)
		if err != nil {
			r.fail(key, "comma separated numbers", v)
			return nil
		}
		return out
	case []any:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			f, ok := toFloat(item)
			if !ok {
				r.fail(key, "list of numbers", v)
				return nil
			}
			out = append(out, f)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	}
	r.fail(key, "list of numbers", v)
	return nil
}

func (r *reader) strings(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				r.fail(key, "list of strings", v)
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.fail(key, "list of strings", v)
	return nil
}

func (r *reader) object(key string) map[string]any {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	m, ok := asObject(v)
	if !ok {
		r.fail(key, "mapping", v)
		return nil
	}
	return m
}

func (r *reader) stringMap(key string) map[string]string {
	obj := r.object(key)
	if obj == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			r.fail(key+"."+k, "string", v)
			continue
		}
		out[k] = s
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Settings:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = item
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseVector parses a comma separated list of numbers.
func ParseVector(input string) ([]float64, error) {
	parts := strings.Split(input, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

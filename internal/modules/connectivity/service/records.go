package service

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"connviewer/internal/modules/connectivity/domain"
)

func recordInt(rec domain.Record, column string) (int64, bool) {
	switch v := rec[column].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func recordFloat(rec domain.Record, column string) float64 {
	return toFloat(rec[column])
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// recordPosition reads a point stored either as a 3-element array under
// column or split into column_x, column_y and column_z.
func recordPosition(rec domain.Record, column string) domain.Position {
	if raw, ok := rec[column]; ok && raw != nil {
		var items []any
		switch t := raw.(type) {
		case []any:
			items = t
		case []float64:
			for _, f := range t {
				items = append(items, f)
			}
		}
		if len(items) != 3 {
			return domain.MissingPosition()
		}
		return domain.Position{toFloat(items[0]), toFloat(items[1]), toFloat(items[2])}
	}
	if _, ok := rec[column+"_x"]; ok {
		return domain.Position{
			recordFloat(rec, column+"_x"),
			recordFloat(rec, column+"_y"),
			recordFloat(rec, column+"_z"),
		}
	}
	return domain.MissingPosition()
}

// recordProperties keeps the scalar columns of a row as strings. Columns
// named in skip are dropped, as are position columns and their split
// _x/_y/_z parts.
func recordProperties(rec domain.Record, skip, positions []string) map[string]string {
	out := map[string]string{}
	for k, v := range rec {
		if v == nil || slices.Contains(skip, k) || positionPart(positions, k) {
			continue
		}
		switch t := v.(type) {
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool, float64, int64, int:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func positionPart(positions []string, column string) bool {
	for _, p := range positions {
		switch column {
		case p, p + "_x", p + "_y", p + "_z":
			return true
		}
	}
	return false
}

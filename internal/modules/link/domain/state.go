package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Row is one table row as the browser holds it.
type Row map[string]any

// State is a viewer state: an ordered set of layers plus the camera position.
type State struct {
	Layers     []map[string]any `json:"layers"`
	Navigation *Navigation      `json:"navigation,omitempty"`
	Layout     string           `json:"layout"`
}

type Navigation struct {
	Pose struct {
		Position struct {
			VoxelCoordinates []float64 `json:"voxelCoordinates"`
		} `json:"position"`
	} `json:"pose"`
}

// IDs hands out annotation ids.
type IDs interface {
	New() string
}

// EncodeURL puts the JSON state into the URL fragment after prefix.
func EncodeURL(prefix string, state State) (string, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return strings.TrimRight(prefix, "/") + "/#!" + url.PathEscape(string(b)), nil
}

// ShortURL points the viewer at a state stored on the state server.
func ShortURL(viewer, stateServer, stateID string) string {
	return strings.TrimRight(viewer, "/") + "/?json_url=" + strings.TrimRight(stateServer, "/") + "/nglstate/api/v1/" + stateID
}

// UploadURL is where states are posted.
func UploadURL(stateServer string) string {
	return strings.TrimRight(stateServer, "/") + "/nglstate/api/v1/post"
}

// Points reads one or more 3D points out of a cell: either a single
// [x, y, z] or a list of them. Anything else yields no points.
func Points(v any) [][3]float64 {
	switch t := v.(type) {
	case [3]float64:
		return [][3]float64{t}
	case []float64:
		if p, ok := point(t); ok {
			return [][3]float64{p}
		}
	case [][]float64:
		var out [][3]float64
		for _, item := range t {
			if p, ok := point(item); ok {
				out = append(out, p)
			}
		}
		return out
	case []any:
		if p, ok := point(t); ok {
			return [][3]float64{p}
		}
		var out [][3]float64
		for _, item := range t {
			out = append(out, Points(item)...)
		}
		return out
	}
	return nil
}

func point[T any](items []T) ([3]float64, bool) {
	if len(items) != 3 {
		return [3]float64{}, false
	}
	var p [3]float64
	for i, item := range items {
		f, ok := number(any(item))
		if !ok {
			return [3]float64{}, false
		}
		p[i] = f
	}
	return p, true
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// SegmentID renders a root id cell as a string; zero and empty cells are not ids.
func SegmentID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != "" && t != "0"
	case json.Number:
		return t.String(), t.String() != "0"
	case int64:
		return strconv.FormatInt(t, 10), t != 0
	case int:
		return strconv.Itoa(t), t != 0
	case float64:
		if math.IsNaN(t) || t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', 0, 64), true
	}
	return "", false
}

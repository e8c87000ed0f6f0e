package domain

// Layer renders itself into a state given the rows bound to its builder.
type Layer interface {
	LayerName() string
	render(rows []Row, ids IDs) (layer map[string]any, position []float64)
}

type ImageLayer struct {
	Name             string
	Source           string
	ContrastControls bool
	Black            float64
	White            float64
}

func (l ImageLayer) LayerName() string { return l.Name }

func (l ImageLayer) render([]Row, IDs) (map[string]any, []float64) {
	out := map[string]any{"type": "image", "name": l.Name, "source": l.Source}
	if l.ContrastControls {
		out["shaderControls"] = map[string]any{"normalized": map[string]any{"range": []float64{l.Black, l.White}}}
	}
	return out, nil
}

type SegmentationLayer struct {
	Name   string
	Source string
	// SelectedIDsColumn selects every root id found in that column of the rows.
	SelectedIDsColumn string
	FixedIDs          []string
	FixedIDColors     []string
	Alpha3D           float64
	// Timestamp is a unix time in seconds; nil means the latest segmentation.
	Timestamp *float64
}

func (l SegmentationLayer) LayerName() string { return l.Name }

func (l SegmentationLayer) render(rows []Row, _ IDs) (map[string]any, []float64) {
	segments := []string{}
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			segments = append(segments, id)
		}
	}
	colors := map[string]string{}
	for i, id := range l.FixedIDs {
		add(id)
		if i < len(l.FixedIDColors) && l.FixedIDColors[i] != "" {
			colors[id] = l.FixedIDColors[i]
		}
	}
	if l.SelectedIDsColumn != "" {
		for _, row := range rows {
			if id, ok := SegmentID(row[l.SelectedIDsColumn]); ok {
				add(id)
			}
		}
	}
	out := map[string]any{
		"type":        "segmentation_with_graph",
		"name":        l.Name,
		"source":      l.Source,
		"segments":    segments,
		"objectAlpha": l.Alpha3D,
	}
	if len(colors) > 0 {
		out["segmentColors"] = colors
	}
	if l.Timestamp != nil {
		out["timestamp"] = *l.Timestamp
	}
	return out, nil
}

// PointMapper turns rows into point annotations.
type PointMapper struct {
	PointColumn              string
	LinkedSegmentationColumn string
	// GroupColumn collects the points of rows sharing a value into one collection.
	GroupColumn string
	Multipoint  bool
	SetPosition bool
}

type AnnotationLayer struct {
	Name                    string
	Color                   string
	Mapper                  PointMapper
	LinkedSegmentationLayer string
	FilterBySegmentation    bool
}

func (l AnnotationLayer) LayerName() string { return l.Name }

func (l AnnotationLayer) render(rows []Row, ids IDs) (map[string]any, []float64) {
	m := l.Mapper
	annotations := []map[string]any{}
	groups := map[string][]string{}
	var groupOrder []string
	var position []float64
	for _, row := range rows {
		points := Points(row[m.PointColumn])
		if !m.Multipoint && len(points) > 1 {
			points = points[:1]
		}
		segment, hasSegment := SegmentID(row[m.LinkedSegmentationColumn])
		group, hasGroup := "", false
		if m.GroupColumn != "" {
			group, hasGroup = SegmentID(row[m.GroupColumn])
		}
		for _, p := range points {
			a := map[string]any{"type": "point", "id": ids.New(), "point": []float64{p[0], p[1], p[2]}}
			if hasSegment && m.LinkedSegmentationColumn != "" {
				a["segments"] = [][]string{{segment}}
			}
			if hasGroup {
				if _, ok := groups[group]; !ok {
					groupOrder = append(groupOrder, group)
				}
				groups[group] = append(groups[group], a["id"].(string))
			}
			annotations = append(annotations, a)
			if m.SetPosition && position == nil {
				position = []float64{p[0], p[1], p[2]}
			}
		}
	}
	parents := map[string]string{}
	for _, group := range groupOrder {
		children := groups[group]
		if len(children) < 2 {
			continue
		}
		parent := ids.New()
		for _, child := range children {
			parents[child] = parent
		}
		annotations = append(annotations, map[string]any{
			"type":               "collection",
			"id":                 parent,
			"childAnnotationIds": children,
			"childrenVisible":    true,
			"segments":           [][]string{{group}},
		})
	}
	for _, a := range annotations {
		if parent, ok := parents[a["id"].(string)]; ok {
			a["parentId"] = parent
		}
	}
	out := map[string]any{
		"type":        "annotation",
		"name":        l.Name,
		"annotations": annotations,
	}
	if l.Color != "" {
		out["annotationColor"] = l.Color
	}
	if l.LinkedSegmentationLayer != "" {
		out["linkedSegmentationLayer"] = l.LinkedSegmentationLayer
		out["filterBySegmentation"] = l.FilterBySegmentation
	}
	return out, position
}

// StateBuilder maps rows onto a fixed list of layers.
type StateBuilder struct {
	Layers    []Layer
	URLPrefix string
}

// Render builds a state from rows; nil rows render the bare layers.
func (b StateBuilder) Render(rows []Row, ids IDs) State {
	return b.renderOnto(State{Layout: "xy-3d"}, rows, ids)
}

func (b StateBuilder) renderOnto(state State, rows []Row, ids IDs) State {
	for _, layer := range b.Layers {
		rendered, position := layer.render(rows, ids)
		state.Layers = append(state.Layers, rendered)
		if position != nil {
			nav := &Navigation{}
			nav.Pose.Position.VoxelCoordinates = position
			state.Navigation = nav
		}
	}
	return state
}

// ChainedBuilder renders each builder with its own rows onto one state. The
// last builder to place the camera wins.
type ChainedBuilder struct {
	Builders []StateBuilder
}

func (c ChainedBuilder) Render(rows [][]Row, ids IDs) State {
	state := State{Layout: "xy-3d"}
	for i, b := range c.Builders {
		var bound []Row
		if i < len(rows) {
			bound = rows[i]
		}
		state = b.renderOnto(state, bound, ids)
	}
	return state
}

// URLPrefix is the viewer address of the first builder that names one.
func (c ChainedBuilder) URLPrefix() string {
	for _, b := range c.Builders {
		if b.URLPrefix != "" {
			return b.URLPrefix
		}
	}
	return ""
}

package domain

import (
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"connviewer/internal/platform/palette"
)

type Valence int8

const (
	ValenceUnknown Valence = iota
	ValenceExcitatory
	ValenceInhibitory
)

// Style carries the colors, labels and opacities charts are drawn with.
type Style struct {
	AxonColor     colorful.Color
	DendriteColor colorful.Color

	EColor, IColor, UColor       colorful.Color
	EString, IString, UString    string
	EOpacity, IOpacity, UOpacity float64

	TickLocations []float64
	TickLabels    []string
}

func (s Style) valence(v Valence) (label string, color colorful.Color, opacity float64) {
	switch v {
	case ValenceExcitatory:
		return s.EString, s.EColor, s.EOpacity
	case ValenceInhibitory:
		return s.IString, s.IColor, s.IOpacity
	default:
		return s.UString, s.UColor, s.UOpacity
	}
}

// SynapsePoint is an output synapse with its own depth and the depth and
// valence of the target's soma. Missing depths are NaN.
type SynapsePoint struct {
	Depth            float64
	PartnerSomaDepth float64
	Valence          Valence
}

// Target is a partner with its cell type. Empty cell types are unknown.
type Target struct {
	CellType string
	NumSyn   int
}

// Annotation is one row of the cell type table.
type Annotation struct {
	CellType string
	Valence  Valence
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func violin(depths []float64, name, side string, color colorful.Color, xaxis, yaxis string) Trace {
	rgb := palette.RGBString(color)
	return Trace{
		Type:       "violin",
		Name:       name,
		Y:          finite(depths),
		X0:         "syn",
		Side:       side,
		ScaleGroup: "syn",
		Points:     false,
		Line:       &Line{Color: rgb},
		FillColor:  rgb,
		XAxis:      xaxis,
		YAxis:      yaxis,
	}
}

// PreViolin draws output synapse depths on the positive side in the axon color.
func PreViolin(depths []float64, s Style, xaxis, yaxis string) Trace {
	return violin(depths, "Pre", "positive", s.AxonColor, xaxis, yaxis)
}

// PostViolin draws input synapse depths on the negative side in the dendrite color.
func PostViolin(depths []float64, s Style, xaxis, yaxis string) Trace {
	return violin(depths, "Post", "negative", s.DendriteColor, xaxis, yaxis)
}

// SynapseSomaScatter plots synapse depth against target soma depth, one
// trace per valence in the order unknown, excitatory, inhibitory. Points
// missing either depth are dropped.
func SynapseSomaScatter(points []SynapsePoint, s Style, xaxis, yaxis string) []Trace {
	order := []Valence{ValenceUnknown, ValenceExcitatory, ValenceInhibitory}
	traces := make([]Trace, 0, len(order))
	zero := 0.0
	for _, v := range order {
		xs, ys := []float64{}, []float64{}
		for _, p := range points {
			if p.Valence != v || math.IsNaN(p.Depth) || math.IsNaN(p.PartnerSomaDepth) {
				continue
			}
			xs = append(xs, p.PartnerSomaDepth)
			ys = append(ys, p.Depth)
		}
		label, color, opacity := s.valence(v)
		traces = append(traces, Trace{
			Type: "scattergl",
			Name: label,
			X:    xs,
			Y:    ys,
			Mode: "markers",
			Marker: &Marker{
				Color:   palette.RGBString(color),
				Size:    5,
				Opacity: opacity,
				Line:    &Line{Width: &zero},
			},
			XAxis: xaxis,
			YAxis: yaxis,
		})
	}
	return traces
}

// BarData sums synapse counts per target cell type, skipping targets
// without a cell type.
func BarData(targets []Target) map[string]float64 {
	out := map[string]float64{}
	for _, t := range targets {
		if t.CellType == "" {
			continue
		}
		out[t.CellType] += float64(t.NumSyn)
	}
	return out
}

// DefaultCellTypes lists the sorted cell types of the annotations whose
// valence keep accepts; a nil keep accepts all.
func DefaultCellTypes(annotations []Annotation, keep func(Valence) bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, a := range annotations {
		if a.CellType == "" || seen[a.CellType] || (keep != nil && !keep(a.Valence)) {
			continue
		}
		seen[a.CellType] = true
		out = append(out, a.CellType)
	}
	sort.Strings(out)
	return out
}

// Bar draws a horizontal bar per cell type, in the order given. Cell types
// without targets get a zero bar.
func Bar(data map[string]float64, cellTypes []string, name string, color colorful.Color) Trace {
	values := make([]float64, len(cellTypes))
	for i, ct := range cellTypes {
		values[i] = data[ct]
	}
	return Trace{
		Type:        "bar",
		Name:        name,
		X:           values,
		Y:           append([]string(nil), cellTypes...),
		Marker:      &Marker{Color: palette.RGBString(color)},
		Orientation: "h",
	}
}

func isValence(v Valence) func(Valence) bool {
	return func(got Valence) bool { return got == v }
}

// ExcitatoryBar draws targets of excitatory cell types. A nil cellTypes
// defaults to the excitatory cell types of the annotation table.
func ExcitatoryBar(targets []Target, annotations []Annotation, cellTypes []string, s Style) Trace {
	if cellTypes == nil {
		cellTypes = DefaultCellTypes(annotations, isValence(ValenceExcitatory))
	}
	return Bar(BarData(targets), cellTypes, "E Targets", s.EColor)
}

// InhibitoryBar draws targets of inhibitory cell types.
func InhibitoryBar(targets []Target, annotations []Annotation, cellTypes []string, s Style) Trace {
	if cellTypes == nil {
		cellTypes = DefaultCellTypes(annotations, isValence(ValenceInhibitory))
	}
	return Bar(BarData(targets), cellTypes, "I Targets", s.IColor)
}

// UniformBar draws targets of every cell type in one color.
func UniformBar(targets []Target, annotations []Annotation, cellTypes []string, s Style) Trace {
	if cellTypes == nil {
		cellTypes = DefaultCellTypes(annotations, nil)
	}
	return Bar(BarData(targets), cellTypes, "Targets", s.UColor)
}

func depthAxis(s Style, title string) *Axis {
	n := min(len(s.TickLocations), len(s.TickLabels))
	return &Axis{
		Title:     title,
		TickVals:  append([]float64(nil), s.TickLocations[:n]...),
		TickText:  append([]string(nil), s.TickLabels[:n]...),
		AutoRange: "reversed",
		ShowGrid:  true,
	}
}

// DepthFigure puts the synapse depth violins next to the synapse/soma depth
// scatter, sharing the depth axis.
func DepthFigure(preDepths, postDepths []float64, points []SynapsePoint, s Style) Figure {
	data := []Trace{
		PreViolin(preDepths, s, "x", "y"),
		PostViolin(postDepths, s, "x", "y"),
	}
	data = append(data, SynapseSomaScatter(points, s, "x2", "y2")...)

	yaxis := depthAxis(s, "Synapse depth")
	yaxis2 := depthAxis(s, "")
	yaxis2.Matches = "y"
	yaxis2.Anchor = "x2"
	xaxis2 := depthAxis(s, "Target soma depth")
	xaxis2.AutoRange = ""
	xaxis2.Domain = []float64{0.35, 1}
	return Figure{
		Data: data,
		Layout: Layout{
			ShowLegend: true,
			Height:     500,
			XAxis:      &Axis{Domain: []float64{0, 0.3}, Anchor: "y"},
			YAxis:      yaxis,
			XAxis2:     xaxis2,
			YAxis2:     yaxis2,
			Margin:     Margin{L: 60, R: 20, T: 30, B: 40},
		},
	}
}

// BarFigure shows E and I target bars when valence is known, otherwise one
// uniform bar per cell type.
func BarFigure(targets []Target, annotations []Annotation, withValence bool, s Style) Figure {
	var data []Trace
	if withValence {
		data = []Trace{
			ExcitatoryBar(targets, annotations, nil, s),
			InhibitoryBar(targets, annotations, nil, s),
		}
	} else {
		data = []Trace{UniformBar(targets, annotations, nil, s)}
	}
	return Figure{
		Data: data,
		Layout: Layout{
			ShowLegend: withValence,
			BarMode:    "group",
			Height:     500,
			XAxis:      &Axis{Title: "Synapses", ShowGrid: true},
			YAxis:      &Axis{Title: "Cell type", AutoRange: "reversed"},
			Margin:     Margin{L: 100, R: 20, T: 30, B: 40},
		},
	}
}

package config

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/palette"
)

const paletteSize = 9

// Vis carries chart colors, valence labels and opacities.
type Vis struct {
	DendriteColor colorful.Color
	AxonColor     colorful.Color

	EColors   []colorful.Color
	IColors   []colorful.Color
	UColors   []colorful.Color
	BaseIndex int

	EString string
	IString string
	UString string

	EOpacity float64
	IOpacity float64
	UOpacity float64

	TickLocations []float64
	TickLabels    []string
}

func newVis(r *reader, typed Typed) (Vis, error) {
	v := Vis{
		DendriteColor: color(r, "ct_conn_dendrite_color", [3]float64{0.894, 0.102, 0.110}),
		AxonColor:     color(r, "ct_conn_axon_color", [3]float64{0.227, 0.459, 0.718}),
		BaseIndex:     r.integer("ct_conn_palette_base", 6),
		EString:       "Exc",
		IString:       "Inh",
		UString:       "Unknown",
		EOpacity:      0.5,
		IOpacity:      0.75,
		UOpacity:      0.3,
		TickLocations: typed.TickLocations,
		TickLabels:    typed.TickLabels,
	}
	var err error
	if v.EColors, err = palette.Sequential(r.str("ct_conn_e_palette", "RdPu"), paletteSize); err != nil {
		return Vis{}, err
	}
	if v.IColors, err = palette.Sequential(r.str("ct_conn_i_palette", "Greens"), paletteSize); err != nil {
		return Vis{}, err
	}
	if v.UColors, err = palette.Sequential(r.str("ct_conn_u_palette", "Greys"), paletteSize); err != nil {
		return Vis{}, err
	}
	if v.BaseIndex < 0 || v.BaseIndex >= paletteSize {
		return Vis{}, fmt.Errorf("%w: ct_conn_palette_base must be in [0, %d), got %d", apperrors.ErrInvalidConfig, paletteSize, v.BaseIndex)
	}
	return v, nil
}

func color(r *reader, key string, def [3]float64) colorful.Color {
	v, ok := r.lookup(key)
	if !ok {
		return palette.FromFloats(def)
	}
	if s, isString := v.(string); isString && len(s) > 0 && s[0] == '#' {
		c, err := colorful.Hex(s)
		if err != nil {
			r.fail(key, "hex color", v)
			return palette.FromFloats(def)
		}
		return c
	}
	vals := r.floats(key)
	if len(vals) != 3 {
		r.fail(key, "three 0..1 RGB components", v)
		return palette.FromFloats(def)
	}
	return palette.FromFloats([3]float64{vals[0], vals[1], vals[2]})
}

// Clrs returns axon then dendrite color.
func (v Vis) Clrs() []colorful.Color {
	return []colorful.Color{v.AxonColor, v.DendriteColor}
}

func (v Vis) EColor() colorful.Color { return v.EColors[v.BaseIndex] }
func (v Vis) IColor() colorful.Color { return v.IColors[v.BaseIndex] }

func (v Vis) UColor() colorful.Color {
	return v.UColors[max(v.BaseIndex-2, 0)]
}

// ValenceColors is ordered excitatory, inhibitory, unknown.
func (v Vis) ValenceColors() []colorful.Color {
	return []colorful.Color{v.EColor(), v.IColor(), v.UColor()}
}

// ValenceColorIndex indexes ValenceColors for a classification.
func (v Vis) ValenceColorIndex(known, inhibitory bool) int {
	switch {
	case !known:
		return 2
	case inhibitory:
		return 1
	default:
		return 0
	}
}

// ValenceString labels a classification for legends and tables.
func (v Vis) ValenceString(known, inhibitory bool) string {
	switch {
	case !known:
		return v.UString
	case inhibitory:
		return v.IString
	default:
		return v.EString
	}
}

// ValenceOpacity returns the marker opacity for a classification.
func (v Vis) ValenceOpacity(known, inhibitory bool) float64 {
	switch {
	case !known:
		return v.UOpacity
	case inhibitory:
		return v.IOpacity
	default:
		return v.EOpacity
	}
}

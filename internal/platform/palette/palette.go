// Package palette samples named color palettes and formats colors for chart
// and viewer states.
package palette

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	apperrors "connviewer/internal/platform/errors"
)

// lutSize mirrors the 256 entry lookup table of matplotlib colormaps.
const lutSize = 256

var sequential = map[string][]string{
	"RdPu":    {"#fff7f3", "#fde0dd", "#fcc5c0", "#fa9fb5", "#f768a1", "#dd3497", "#ae017e", "#7a0177", "#49006a"},
	"Greens":  {"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"},
	"Greys":   {"#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525", "#000000"},
	"Blues":   {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	"Reds":    {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
	"Purples": {"#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d"},
	"Oranges": {"#fff5eb", "#fee6ce", "#fdd0a2", "#fdae6b", "#fd8d3c", "#f16913", "#d94801", "#a63603", "#7f2704"},
}

// Tab20 is the qualitative palette used to tell cell types apart in viewer links.
var Tab20 = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c", "#98df8a", "#d62728",
	"#ff9896", "#9467bd", "#c5b0d5", "#8c564b", "#c49c94", "#e377c2", "#f7b6d2",
	"#7f7f7f", "#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// Names lists the sequential palettes that can be sampled.
func Names() []string {
	out := make([]string, 0, len(sequential)*2)
	for name := range sequential {
		out = append(out, name, name+"_r")
	}
	return out
}

// Sequential samples n colors from the named palette, skipping both extremes
// the way seaborn does for continuous colormaps. A "_r" suffix reverses it.
func Sequential(name string, n int) ([]colorful.Color, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: palette size must be positive, got %d", apperrors.ErrInvalidInput, n)
	}
	reversed := strings.HasSuffix(name, "_r")
	anchors, ok := sequential[strings.TrimSuffix(name, "_r")]
	if !ok {
		return nil, fmt.Errorf("%w: unknown palette %q", apperrors.ErrInvalidConfig, name)
	}
	stops := make([]colorful.Color, 0, len(anchors))
	for _, hex := range anchors {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("parse palette color %q: %w", hex, err)
		}
		stops = append(stops, c)
	}
	if reversed {
		for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
			stops[i], stops[j] = stops[j], stops[i]
		}
	}

	out := make([]colorful.Color, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, sample(stops, float64(i)/float64(n+1)))
	}
	return out, nil
}

func sample(stops []colorful.Color, t float64) colorful.Color {
	idx := int(t * lutSize)
	if idx >= lutSize {
		idx = lutSize - 1
	}
	if idx < 0 {
		idx = 0
	}
	pos := float64(idx) / float64(lutSize-1) * float64(len(stops)-1)
	lo := int(math.Floor(pos))
	if lo >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return stops[lo].BlendRgb(stops[lo+1], pos-float64(lo))
}

// Cycle returns the i-th color of a qualitative palette, wrapping around.
func Cycle(colors []string, i int) string {
	if len(colors) == 0 {
		return "#ffffff"
	}
	return colors[i%len(colors)]
}

// FromFloats builds a color from 0..1 RGB components.
func FromFloats(rgb [3]float64) colorful.Color {
	return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
}

// Bytes scales a color to 0..255 components, truncating like numpy's floor.
func Bytes(c colorful.Color) [3]int {
	return [3]int{
		int(math.Floor(255 * clamp(c.R))),
		int(math.Floor(255 * clamp(c.G))),
		int(math.Floor(255 * clamp(c.B))),
	}
}

// RGBString formats a color as a CSS/plotly "rgb(r, g, b)" string.
func RGBString(c colorful.Color) string {
	b := Bytes(c)
	return fmt.Sprintf("rgb(%d, %d, %d)", b[0], b[1], b[2])
}

// RGBAString formats a color with an alpha channel.
func RGBAString(c colorful.Color, alpha float64) string {
	b := Bytes(c)
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", b[0], b[1], b[2], alpha)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

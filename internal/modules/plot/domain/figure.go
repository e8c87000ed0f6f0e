package domain

// Figure is a plotly.js figure: a list of traces and a layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace covers the fields of the violin, scattergl and bar traces the
// dashboard draws.
type Trace struct {
	Type        string  `json:"type"`
	Name        string  `json:"name,omitempty"`
	X           any     `json:"x,omitempty"`
	Y           any     `json:"y,omitempty"`
	X0          string  `json:"x0,omitempty"`
	Side        string  `json:"side,omitempty"`
	ScaleGroup  string  `json:"scalegroup,omitempty"`
	Points      any     `json:"points,omitempty"`
	Line        *Line   `json:"line,omitempty"`
	FillColor   string  `json:"fillcolor,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	Marker      *Marker `json:"marker,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
	XAxis       string  `json:"xaxis,omitempty"`
	YAxis       string  `json:"yaxis,omitempty"`
}

type Line struct {
	Color string   `json:"color,omitempty"`
	Width *float64 `json:"width,omitempty"`
}

type Marker struct {
	Color   string  `json:"color,omitempty"`
	Size    float64 `json:"size,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Line    *Line   `json:"line,omitempty"`
}

type Layout struct {
	Title      string `json:"title,omitempty"`
	ShowLegend bool   `json:"showlegend"`
	BarMode    string `json:"barmode,omitempty"`
	Height     int    `json:"height,omitempty"`
	XAxis      *Axis  `json:"xaxis,omitempty"`
	YAxis      *Axis  `json:"yaxis,omitempty"`
	XAxis2     *Axis  `json:"xaxis2,omitempty"`
	YAxis2     *Axis  `json:"yaxis2,omitempty"`
	Margin     Margin `json:"margin"`
}

type Axis struct {
	Title     string    `json:"title,omitempty"`
	Domain    []float64 `json:"domain,omitempty"`
	TickVals  []float64 `json:"tickvals,omitempty"`
	TickText  []string  `json:"ticktext,omitempty"`
	AutoRange string    `json:"autorange,omitempty"`
	Matches   string    `json:"matches,omitempty"`
	ShowGrid  bool      `json:"showgrid"`
	Anchor    string    `json:"anchor,omitempty"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

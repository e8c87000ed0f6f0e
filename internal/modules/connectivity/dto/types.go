package dto

import (
	"math"
	"time"
)

// Table is a column-named table as the browser stores it. Root ids are
// strings since they overflow JavaScript numbers.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Len reports the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// InfoCache carries everything a link builder needs about the datastack and
// the loaded cell.
type InfoCache struct {
	Datastack          string   `json:"datastack"`
	ImageSource        string   `json:"image_source"`
	SegmentationSource string   `json:"segmentation_source"`
	ViewerSite         string   `json:"viewer_site"`
	GlobalServer       string   `json:"global_server"`
	RootID             string   `json:"root_id,omitempty"`
	NGLTimestamp       *float64 `json:"ngl_timestamp,omitempty"`
	ImageBlack         float64  `json:"image_black"`
	ImageWhite         float64  `json:"image_white"`
}

type ConnectivityInput struct {
	AnnoID        string `json:"anno_id"`
	IDType        string `json:"id_type"`
	LiveQuery     bool   `json:"live_query"`
	CellTypeTable string `json:"cell_type_table"`
	Schema        string `json:"schema,omitempty"`
}

type ConnectivityOutput struct {
	RootID      string    `json:"root_id"`
	Timestamp   time.Time `json:"timestamp"`
	Live        bool      `json:"live"`
	Targets     Table     `json:"targets"`
	Sources     Table     `json:"sources"`
	OutputLabel string    `json:"output_label"`
	InputLabel  string    `json:"input_label"`
	Info        InfoCache `json:"info"`
	Message     string    `json:"message"`
	// Detail feeds the plots. The browser keeps it with the tables and sends
	// it back, so charts always describe the snapshot on screen.
	Detail Detail `json:"detail"`
}

// EmptyConnectivity is the reply shown when nothing could be loaded.
func EmptyConnectivity(message string) ConnectivityOutput {
	return ConnectivityOutput{
		Targets:     Table{Rows: []map[string]any{}},
		Sources:     Table{Rows: []map[string]any{}},
		OutputLabel: "Output",
		InputLabel:  "Input",
		Message:     message,
	}
}

// Detail is the typed, decorated data behind the tables. Missing depths are NaN.
type Detail struct {
	CellTypeColumn string
	HasValence     bool
	SomaDepth      float64
	OutputSynapses []SynapseRow
	InputSynapses  []SynapseRow
	Outputs        []PartnerRow
	Inputs         []PartnerRow
	CellTypes      []CellTypeRow
}

type SynapseRow struct {
	PartnerRootID    string
	Depth            float64
	PartnerCellType  string
	PartnerSomaDepth float64
	PartnerValence   Valence
}

type PartnerRow struct {
	RootID    string
	NumSyn    int
	CellType  string
	SomaDepth float64
	Valence   Valence
}

type CellTypeRow struct {
	RootID   string
	CellType string
	Depth    float64
	Valence  Valence
}

// Valence mirrors the excitatory/inhibitory classification across modules.
type Valence struct {
	Known      bool `json:"known"`
	Inhibitory bool `json:"inhibitory"`
}

type CellTypeTableInput struct {
	Table     string   `json:"table"`
	Schema    string   `json:"schema,omitempty"`
	CellType  string   `json:"cell_type,omitempty"`
	RootIDs   []string `json:"root_ids,omitempty"`
	LiveQuery bool     `json:"live_query"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Number turns NaN into nil so tables stay JSON encodable.
func Number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

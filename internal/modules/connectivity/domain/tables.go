package domain

import (
	"math"
	"time"
)

// Direction says which side of a synapse the queried cell sits on.
type Direction string

const (
	// DirectionPre covers output synapses: the cell is presynaptic.
	DirectionPre Direction = "pre"
	// DirectionPost covers input synapses: the cell is postsynaptic.
	DirectionPost Direction = "post"
)

// IDType says how an object identifier is resolved to a root id.
type IDType string

const (
	IDTypeRoot    IDType = "root_id"
	IDTypeNucleus IDType = "nucleus_id"
)

// Record is one untyped row returned by the annotation service.
type Record map[string]any

// Version is one materialization of a datastack.
type Version struct {
	Number    int
	Timestamp time.Time
}

// Snapshot pins every query of one lookup to the same point in time.
// Version is zero for live snapshots.
type Snapshot struct {
	Timestamp time.Time
	Version   int
	Live      bool
}

// Query selects rows of one annotation table at a point in time. Materialized
// queries read Version and ignore Timestamp.
type Query struct {
	Table        string
	Timestamp    time.Time
	Materialized bool
	Version      int
	Equal        map[string]any
	In           map[string][]int64
	Columns      []string
	BridgeSchema string
}

// DatastackInfo describes the data sources behind a datastack.
type DatastackInfo struct {
	Name               string
	AlignedVolume      string
	ImageSource        string
	SegmentationSource string
	ViewerSite         string
	SynapseTable       string
	SomaTable          string
	ViewerResolution   Resolution
}

type Synapse struct {
	ID         int64
	PreRootID  int64
	PostRootID int64
	Position   Position
	// Values carries the numeric columns referenced by aggregation rules.
	Values map[string]float64

	// Derived columns.
	Depth            float64
	PartnerProps     map[string]string
	PartnerNumSoma   int
	PartnerSomaDepth float64
	PartnerValence   Valence
}

// PartnerID returns the root id on the far side of the synapse.
func (s Synapse) PartnerID(dir Direction) int64 {
	if dir == DirectionPre {
		return s.PostRootID
	}
	return s.PreRootID
}

// Partner aggregates every synapse shared with one other root id.
type Partner struct {
	RootID       int64
	NumSyn       int
	SynPositions []Position
	Aggregates   map[string]float64

	NumSoma      int
	SomaPosition Position
	Properties   map[string]string

	// Derived columns.
	SomaDepth float64
	Valence   Valence
}

// SomaRecord is one row of the nucleus/soma table.
type SomaRecord struct {
	ID       int64
	RootID   int64
	Position Position
}

// CellTypeRecord is one row of a cell type table.
type CellTypeRecord struct {
	ID         int64
	RootID     int64
	Position   Position
	Properties map[string]string

	// Derived columns.
	Depth   float64
	Valence Valence
}

// Connectivity is the decorated result of one neuron lookup.
type Connectivity struct {
	RootID        int64
	Timestamp     time.Time
	Version       int
	Live          bool
	Info          DatastackInfo
	CellTypeTable string
	ValenceMap    *ValenceMap

	PreSynapses  []Synapse
	PostSynapses []Synapse
	Outputs      []Partner
	Inputs       []Partner
	CellTypes    []CellTypeRecord

	SomaPosition Position
	SomaDepth    float64
}

// NumSynapses counts synapses on one side.
func (c Connectivity) NumSynapses(dir Direction) int {
	if dir == DirectionPre {
		return len(c.PreSynapses)
	}
	return len(c.PostSynapses)
}

// Partners returns the partner table of one side.
func (c Connectivity) Partners(dir Direction) []Partner {
	if dir == DirectionPre {
		return c.Outputs
	}
	return c.Inputs
}

func nan() float64 { return math.NaN() }

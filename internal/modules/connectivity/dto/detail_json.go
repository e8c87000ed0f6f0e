package dto

import (
	"encoding/json"
	"math"
)

// The detail travels to the browser and back, so missing depths are encoded
// as null and decoded as NaN again.

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

type detailJSON struct {
	CellTypeColumn string        `json:"cell_type_column"`
	HasValence     bool          `json:"has_valence"`
	SomaDepth      *float64      `json:"soma_depth"`
	OutputSynapses []SynapseRow  `json:"output_synapses"`
	InputSynapses  []SynapseRow  `json:"input_synapses"`
	Outputs        []PartnerRow  `json:"outputs"`
	Inputs         []PartnerRow  `json:"inputs"`
	CellTypes      []CellTypeRow `json:"cell_types"`
}

func (d Detail) MarshalJSON() ([]byte, error) {
	return json.Marshal(detailJSON{
		CellTypeColumn: d.CellTypeColumn,
		HasValence:     d.HasValence,
		SomaDepth:      nullable(d.SomaDepth),
		OutputSynapses: d.OutputSynapses,
		InputSynapses:  d.InputSynapses,
		Outputs:        d.Outputs,
		Inputs:         d.Inputs,
		CellTypes:      d.CellTypes,
	})
}

func (d *Detail) UnmarshalJSON(b []byte) error {
	var v detailJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Detail{
		CellTypeColumn: v.CellTypeColumn,
		HasValence:     v.HasValence,
		SomaDepth:      orNaN(v.SomaDepth),
		OutputSynapses: v.OutputSynapses,
		InputSynapses:  v.InputSynapses,
		Outputs:        v.Outputs,
		Inputs:         v.Inputs,
		CellTypes:      v.CellTypes,
	}
	return nil
}

type synapseRowJSON struct {
	PartnerRootID    string   `json:"partner_root_id"`
	Depth            *float64 `json:"depth"`
	PartnerCellType  string   `json:"partner_cell_type,omitempty"`
	PartnerSomaDepth *float64 `json:"partner_soma_depth"`
	PartnerValence   Valence  `json:"partner_valence"`
}

func (r SynapseRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(synapseRowJSON{
		PartnerRootID:    r.PartnerRootID,
		Depth:            nullable(r.Depth),
		PartnerCellType:  r.PartnerCellType,
		PartnerSomaDepth: nullable(r.PartnerSomaDepth),
		PartnerValence:   r.PartnerValence,
	})
}

func (r *SynapseRow) UnmarshalJSON(b []byte) error {
	var v synapseRowJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = SynapseRow{
		PartnerRootID:    v.PartnerRootID,
		Depth:            orNaN(v.Depth),
		PartnerCellType:  v.PartnerCellType,
		PartnerSomaDepth: orNaN(v.PartnerSomaDepth),
		PartnerValence:   v.PartnerValence,
	}
	return nil
}

type partnerRowJSON struct {
	RootID    string   `json:"root_id"`
	NumSyn    int      `json:"num_syn"`
	CellType  string   `json:"cell_type,omitempty"`
	SomaDepth *float64 `json:"soma_depth"`
	Valence   Valence  `json:"valence"`
}

func (r PartnerRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(partnerRowJSON{
		RootID:    r.RootID,
		NumSyn:    r.NumSyn,
		CellType:  r.CellType,
		SomaDepth: nullable(r.SomaDepth),
		Valence:   r.Valence,
	})
}

func (r *PartnerRow) UnmarshalJSON(b []byte) error {
	var v partnerRowJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = PartnerRow{RootID: v.RootID, NumSyn: v.NumSyn, CellType: v.CellType, SomaDepth: orNaN(v.SomaDepth), Valence: v.Valence}
	return nil
}

type cellTypeRowJSON struct {
	RootID   string   `json:"root_id"`
	CellType string   `json:"cell_type,omitempty"`
	Depth    *float64 `json:"depth"`
	Valence  Valence  `json:"valence"`
}

func (r CellTypeRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(cellTypeRowJSON{RootID: r.RootID, CellType: r.CellType, Depth: nullable(r.Depth), Valence: r.Valence})
}

func (r *CellTypeRow) UnmarshalJSON(b []byte) error {
	var v cellTypeRowJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = CellTypeRow{RootID: v.RootID, CellType: v.CellType, Depth: orNaN(v.Depth), Valence: v.Valence}
	return nil
}

package domain

import (
	"math"
	"sort"
)

// Decoration selects which derived columns are computed. A disabled column
// stays NaN (depths) or unknown (valence).
type Decoration struct {
	SomaResolution    Resolution
	SynapseResolution Resolution
	SomaDepth         bool
	SynapseDepth      bool
	// ValenceMap is nil when the cell type table has no configured labels.
	ValenceMap *ValenceMap
}

func (d Decoration) somaDepth(p Position) float64 {
	if !d.SomaDepth {
		return math.NaN()
	}
	return ComputeDepth(p, d.SomaResolution)
}

func (d Decoration) synapseDepth(p Position) float64 {
	if !d.SynapseDepth {
		return math.NaN()
	}
	return ComputeDepth(p, d.SynapseResolution)
}

func (d Decoration) valence(props map[string]string) Valence {
	if d.ValenceMap == nil {
		return ValenceUnknown
	}
	return d.ValenceMap.ClassifyProperties(props)
}

// DecoratePartners fills soma depth and valence. Derived columns are computed
// from base columns only, so decorating twice changes nothing.
func DecoratePartners(partners []Partner, d Decoration) []Partner {
	out := make([]Partner, len(partners))
	for i, p := range partners {
		p.SomaDepth = d.somaDepth(p.SomaPosition)
		p.Valence = d.valence(p.Properties)
		out[i] = p
	}
	return out
}

// DecorateSynapses fills synapse depth and copies the partner's cell type
// properties, soma depth and valence onto each synapse.
func DecorateSynapses(synapses []Synapse, dir Direction, partners []Partner, d Decoration) []Synapse {
	byRoot := make(map[int64]Partner, len(partners))
	for _, p := range partners {
		byRoot[p.RootID] = p
	}
	out := make([]Synapse, len(synapses))
	for i, s := range synapses {
		s.Depth = d.synapseDepth(s.Position)
		s.PartnerProps = nil
		s.PartnerNumSoma = 0
		s.PartnerSomaDepth = math.NaN()
		s.PartnerValence = ValenceUnknown
		if p, ok := byRoot[s.PartnerID(dir)]; ok {
			s.PartnerProps = copyProps(p.Properties)
			s.PartnerNumSoma = p.NumSoma
			s.PartnerSomaDepth = d.somaDepth(p.SomaPosition)
			s.PartnerValence = d.valence(p.Properties)
		}
		out[i] = s
	}
	return out
}

// DecorateCellTypes fills depth and valence on rows of a cell type table.
func DecorateCellTypes(records []CellTypeRecord, d Decoration) []CellTypeRecord {
	out := make([]CellTypeRecord, len(records))
	for i, rec := range records {
		rec.Depth = d.somaDepth(rec.Position)
		rec.Valence = d.valence(rec.Properties)
		out[i] = rec
	}
	return out
}

// CellTypes lists the distinct, sorted values of column across records. When
// keep is set only records whose valence it accepts count.
func CellTypes(records []CellTypeRecord, column string, keep func(Valence) bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, rec := range records {
		ct, ok := rec.Properties[column]
		if !ok || ct == "" || seen[ct] {
			continue
		}
		if keep != nil && !keep(rec.Valence) {
			continue
		}
		seen[ct] = true
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}

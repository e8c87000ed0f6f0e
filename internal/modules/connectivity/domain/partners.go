package domain

import (
	"math"
	"sort"
)

// AggregationRule summarises a numeric synapse column per partner.
type AggregationRule struct {
	Name   string
	Column string
	Agg    string
}

// BuildPartners groups synapses by partner root id. Partners are ordered by
// synapse count, largest first, then by root id.
func BuildPartners(synapses []Synapse, dir Direction, rules []AggregationRule) []Partner {
	index := map[int64]int{}
	partners := make([]Partner, 0)
	values := make([]map[string][]float64, 0)
	for _, syn := range synapses {
		pid := syn.PartnerID(dir)
		i, ok := index[pid]
		if !ok {
			i = len(partners)
			index[pid] = i
			partners = append(partners, Partner{
				RootID:       pid,
				SomaPosition: MissingPosition(),
				SomaDepth:    nan(),
			})
			values = append(values, map[string][]float64{})
		}
		partners[i].NumSyn++
		partners[i].SynPositions = append(partners[i].SynPositions, syn.Position)
		for _, rule := range rules {
			v, ok := syn.Values[rule.Column]
			if !ok {
				v = math.NaN()
			}
			values[i][rule.Name] = append(values[i][rule.Name], v)
		}
	}
	for i := range partners {
		if len(rules) == 0 {
			continue
		}
		partners[i].Aggregates = make(map[string]float64, len(rules))
		for _, rule := range rules {
			partners[i].Aggregates[rule.Name] = Aggregate(rule.Agg, values[i][rule.Name])
		}
	}
	sort.SliceStable(partners, func(a, b int) bool {
		if partners[a].NumSyn != partners[b].NumSyn {
			return partners[a].NumSyn > partners[b].NumSyn
		}
		return partners[a].RootID < partners[b].RootID
	})
	return partners
}

// Aggregate applies a named reduction to values, skipping NaN entries.
// Reductions of nothing are NaN, except count which is zero.
func Aggregate(agg string, values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if agg == "count" {
		return float64(len(clean))
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	switch agg {
	case "sum":
		return sum(clean)
	case "mean":
		return sum(clean) / float64(len(clean))
	case "median":
		sort.Float64s(clean)
		mid := len(clean) / 2
		if len(clean)%2 == 1 {
			return clean[mid]
		}
		return (clean[mid-1] + clean[mid]) / 2
	case "min":
		out := clean[0]
		for _, v := range clean[1:] {
			out = math.Min(out, v)
		}
		return out
	case "max":
		out := clean[0]
		for _, v := range clean[1:] {
			out = math.Max(out, v)
		}
		return out
	case "first":
		return clean[0]
	default:
		return math.NaN()
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// MergeSomas sets soma counts per partner. The soma position is kept only
// when a partner owns exactly one soma.
func MergeSomas(partners []Partner, somas []SomaRecord) []Partner {
	byRoot := somasByRoot(somas)
	out := make([]Partner, len(partners))
	for i, p := range partners {
		rows := byRoot[p.RootID]
		p.NumSoma = len(rows)
		p.SomaPosition = MissingPosition()
		if len(rows) == 1 {
			p.SomaPosition = rows[0].Position
		}
		out[i] = p
	}
	return out
}

// SomaOf returns the soma position of a root id, missing unless exactly one
// soma belongs to it.
func SomaOf(rootID int64, somas []SomaRecord) Position {
	rows := somasByRoot(somas)[rootID]
	if len(rows) != 1 {
		return MissingPosition()
	}
	return rows[0].Position
}

func somasByRoot(somas []SomaRecord) map[int64][]SomaRecord {
	out := map[int64][]SomaRecord{}
	for _, s := range somas {
		if s.RootID == 0 {
			continue
		}
		out[s.RootID] = append(out[s.RootID], s)
	}
	return out
}

// MergeCellTypes attaches cell type properties to partners. When a root id
// has several annotations, the one with the lowest annotation id wins.
func MergeCellTypes(partners []Partner, records []CellTypeRecord) []Partner {
	byRoot := map[int64]CellTypeRecord{}
	for _, rec := range records {
		if prev, ok := byRoot[rec.RootID]; ok && prev.ID <= rec.ID {
			continue
		}
		byRoot[rec.RootID] = rec
	}
	out := make([]Partner, len(partners))
	for i, p := range partners {
		p.Properties = nil
		if rec, ok := byRoot[p.RootID]; ok {
			p.Properties = copyProps(rec.Properties)
		}
		out[i] = p
	}
	return out
}

func copyProps(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testDecoration() Decoration {
	return Decoration{
		SomaResolution:    Resolution{4, 4, 40},
		SynapseResolution: Resolution{1, 2, 1},
		SomaDepth:         true,
		SynapseDepth:      true,
		ValenceMap:        &ValenceMap{Column: "classification_system", E: "exc", I: "inh"},
	}
}

func testPartners() []Partner {
	return []Partner{
		{RootID: 1, NumSyn: 3, NumSoma: 1, SomaPosition: Position{0, 250, 0}, Properties: map[string]string{"cell_type": "BC", "classification_system": "inh"}},
		{RootID: 2, NumSyn: 2, NumSoma: 1, SomaPosition: Position{0, 500, 0}, Properties: map[string]string{"cell_type": "PTC", "classification_system": "exc"}},
		{RootID: 3, NumSyn: 1, SomaPosition: MissingPosition()},
	}
}

func TestDecoratePartners(t *testing.T) {
	t.Parallel()
	got := DecoratePartners(testPartners(), testDecoration())
	if got[0].SomaDepth != 1 || got[0].Valence != ValenceInhibitory {
		t.Fatalf("unexpected decoration: %+v", got[0])
	}
	if got[1].SomaDepth != 2 || got[1].Valence != ValenceExcitatory {
		t.Fatalf("unexpected decoration: %+v", got[1])
	}
	if !math.IsNaN(got[2].SomaDepth) || got[2].Valence != ValenceUnknown {
		t.Fatalf("unexpected decoration: %+v", got[2])
	}
}

func TestDecorationIsIdempotent(t *testing.T) {
	t.Parallel()
	d := testDecoration()
	once := DecoratePartners(testPartners(), d)
	twice := DecoratePartners(once, d)
	if diff := cmp.Diff(once, twice, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("partner decoration not idempotent (-once +twice):\n%s", diff)
	}

	syns := []Synapse{
		{ID: 1, PreRootID: 9, PostRootID: 1, Position: Position{0, 1000, 0}},
		{ID: 2, PreRootID: 9, PostRootID: 4, Position: Position{0, math.NaN(), 0}},
	}
	s1 := DecorateSynapses(syns, DirectionPre, once, d)
	s2 := DecorateSynapses(s1, DirectionPre, once, d)
	if diff := cmp.Diff(s1, s2, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("synapse decoration not idempotent (-once +twice):\n%s", diff)
	}
	if s1[0].Depth != 2 || s1[0].PartnerSomaDepth != 1 || s1[0].PartnerValence != ValenceInhibitory {
		t.Fatalf("unexpected synapse decoration: %+v", s1[0])
	}
	if !math.IsNaN(s1[1].Depth) || !math.IsNaN(s1[1].PartnerSomaDepth) || s1[1].PartnerValence.Known() {
		t.Fatalf("unmatched partner should leave derived columns empty: %+v", s1[1])
	}
}

func TestDecorationDisabledColumns(t *testing.T) {
	t.Parallel()
	got := DecoratePartners(testPartners(), Decoration{})
	for _, p := range got {
		if !math.IsNaN(p.SomaDepth) || p.Valence != ValenceUnknown {
			t.Fatalf("disabled decoration must leave NaN/unknown, got %+v", p)
		}
	}
}

func TestCellTypesSortedAndFiltered(t *testing.T) {
	t.Parallel()
	d := testDecoration()
	records := DecorateCellTypes([]CellTypeRecord{
		{RootID: 1, Properties: map[string]string{"cell_type": "PTC", "classification_system": "exc"}},
		{RootID: 2, Properties: map[string]string{"cell_type": "BC", "classification_system": "inh"}},
		{RootID: 3, Properties: map[string]string{"cell_type": "23P", "classification_system": "exc"}},
		{RootID: 4, Properties: map[string]string{"cell_type": "PTC", "classification_system": "exc"}},
	}, d)
	if diff := cmp.Diff([]string{"23P", "BC", "PTC"}, CellTypes(records, "cell_type", nil)); diff != "" {
		t.Fatalf("cell types mismatch (-want +got):\n%s", diff)
	}
	exc := CellTypes(records, "cell_type", func(v Valence) bool { return v == ValenceExcitatory })
	if diff := cmp.Diff([]string{"23P", "PTC"}, exc); diff != "" {
		t.Fatalf("excitatory cell types mismatch (-want +got):\n%s", diff)
	}
}

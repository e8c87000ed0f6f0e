package domain

import (
	"math"
	"testing"
)

func TestComputeDepthScalesY(t *testing.T) {
	t.Parallel()
	got := ComputeDepth(Position{10, 2500, 3}, Resolution{4, 4, 40})
	if got != 10 {
		t.Fatalf("expected depth 10um, got %v", got)
	}
}

func TestComputeDepthMissingCoordinateIsNaN(t *testing.T) {
	t.Parallel()
	for i := 0; i < 3; i++ {
		p := Position{1, 2, 3}
		p[i] = math.NaN()
		if got := ComputeDepth(p, Resolution{4, 4, 40}); !math.IsNaN(got) {
			t.Fatalf("coordinate %d missing: expected NaN, got %v", i, got)
		}
	}
	if !math.IsNaN(ComputeDepth(MissingPosition(), Resolution{1, 1, 1})) {
		t.Fatalf("expected NaN for a missing position")
	}
}

func TestValenceClassifyIsTotal(t *testing.T) {
	t.Parallel()
	vm := ValenceMap{Column: "classification_system", E: "excitatory_neuron", I: "inhibitory_neuron"}
	cases := []struct {
		label   string
		present bool
		want    Valence
	}{
		{"excitatory_neuron", true, ValenceExcitatory},
		{"inhibitory_neuron", true, ValenceInhibitory},
		{"glia", true, ValenceUnknown},
		{"", true, ValenceUnknown},
		{"inhibitory_neuron", false, ValenceUnknown},
	}
	for _, tc := range cases {
		if got := vm.Classify(tc.label, tc.present); got != tc.want {
			t.Fatalf("classify(%q, %v): expected %v, got %v", tc.label, tc.present, tc.want, got)
		}
	}
}

func TestValenceEmptyLabelsNeverMatch(t *testing.T) {
	t.Parallel()
	onlyI := ValenceMap{Column: "c", I: "inh"}
	if got := onlyI.Classify("", true); got != ValenceUnknown {
		t.Fatalf("empty e label must not match the empty string, got %v", got)
	}
	if got := onlyI.Classify("inh", true); got != ValenceInhibitory {
		t.Fatalf("expected inhibitory, got %v", got)
	}
	if got := onlyI.Classify("exc", true); got != ValenceUnknown {
		t.Fatalf("expected unknown, got %v", got)
	}
}

func TestValenceValue(t *testing.T) {
	t.Parallel()
	if ValenceUnknown.Value() != nil {
		t.Fatalf("unknown valence must render as null")
	}
	if ValenceInhibitory.Value() != true || ValenceExcitatory.Value() != false {
		t.Fatalf("unexpected valence values")
	}
}

package domain

// Valence is the excitatory/inhibitory classification of a cell.
type Valence int8

const (
	ValenceUnknown Valence = iota
	ValenceExcitatory
	ValenceInhibitory
)

func (v Valence) Known() bool      { return v != ValenceUnknown }
func (v Valence) Inhibitory() bool { return v == ValenceInhibitory }

// Value is the table representation: nil when unknown, else the inhibitory flag.
func (v Valence) Value() any {
	if !v.Known() {
		return nil
	}
	return v.Inhibitory()
}

func (v Valence) String() string {
	switch v {
	case ValenceExcitatory:
		return "excitatory"
	case ValenceInhibitory:
		return "inhibitory"
	default:
		return "unknown"
	}
}

// ValenceMap names the label column of a cell type table and its
// excitatory (E) and inhibitory (I) values.
type ValenceMap struct {
	Column string
	E      string
	I      string
}

// Classify maps a label onto a valence. Only the configured, non-empty labels
// are recognised; anything else, including a missing label, is unknown.
func (vm ValenceMap) Classify(label string, present bool) Valence {
	if !present {
		return ValenceUnknown
	}
	switch {
	case vm.I != "" && label == vm.I:
		return ValenceInhibitory
	case vm.E != "" && label == vm.E:
		return ValenceExcitatory
	default:
		return ValenceUnknown
	}
}

// ClassifyProperties reads the label column out of a property row.
func (vm ValenceMap) ClassifyProperties(props map[string]string) Valence {
	label, ok := props[vm.Column]
	return vm.Classify(label, ok)
}

package dto

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestConnectivityOutputSurvivesBrowserRoundTrip(t *testing.T) {
	t.Parallel()
	out := ConnectivityOutput{
		RootID:  "864691135000000001",
		Targets: Table{Columns: []string{"root_id"}, Rows: []map[string]any{{"root_id": "864691135000000002"}}},
		Message: "Connectivity for root id 864691135000000001",
		Detail: Detail{
			CellTypeColumn: "cell_type",
			HasValence:     true,
			SomaDepth:      math.NaN(),
			OutputSynapses: []SynapseRow{{PartnerRootID: "864691135000000002", Depth: 1.5, PartnerSomaDepth: math.NaN(), PartnerValence: Valence{Known: true, Inhibitory: true}}},
			Outputs:        []PartnerRow{{RootID: "864691135000000002", NumSyn: 3, CellType: "BC", SomaDepth: math.NaN(), Valence: Valence{Known: true, Inhibitory: true}}},
			CellTypes:      []CellTypeRow{{RootID: "864691135000000002", CellType: "BC", Depth: 250}},
		},
	}
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"soma_depth":null`) {
		t.Fatalf("expected missing depths as null, got %s", b)
	}

	var back ConnectivityOutput
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := back.Detail
	if !math.IsNaN(d.SomaDepth) || !math.IsNaN(d.Outputs[0].SomaDepth) || !math.IsNaN(d.OutputSynapses[0].PartnerSomaDepth) {
		t.Fatalf("null depths must decode as NaN: %+v", d)
	}
	if d.OutputSynapses[0].Depth != 1.5 || d.Outputs[0].NumSyn != 3 || d.CellTypes[0].Depth != 250 {
		t.Fatalf("values changed in transit: %+v", d)
	}
	if !d.Outputs[0].Valence.Inhibitory || d.CellTypes[0].Valence.Known {
		t.Fatalf("valence changed in transit: %+v", d)
	}
	if back.Targets.Rows[0]["root_id"] != "864691135000000002" {
		t.Fatalf("root id changed in transit: %v", back.Targets.Rows[0])
	}
}

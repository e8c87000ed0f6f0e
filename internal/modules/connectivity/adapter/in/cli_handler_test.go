package in

import (
	"bytes"
	"strings"
	"testing"

	"connviewer/internal/modules/connectivity/dto"
)

func TestWriteTableTSV(t *testing.T) {
	t.Parallel()
	table := dto.Table{
		Columns: []string{"root_id", "num_syn", "soma_depth", "is_inhibitory"},
		Rows: []map[string]any{
			{"root_id": "864691135000000002", "num_syn": 2, "soma_depth": 1.0, "is_inhibitory": true},
			{"root_id": "864691135000000003", "num_syn": 1, "soma_depth": nil, "is_inhibitory": nil},
		},
	}
	var buf bytes.Buffer
	if err := WriteTable(&buf, table, "tsv"); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "root_id\tnum_syn\tsoma_depth\tis_inhibitory\n" +
		"864691135000000002\t2\t1.00\ttrue\n" +
		"864691135000000003\t1\t\t\n"
	if buf.String() != want {
		t.Fatalf("unexpected tsv:\n%q", buf.String())
	}
}

func TestWriteTableJSONAndUnknownFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteTable(&buf, dto.Table{Columns: []string{"a"}, Rows: []map[string]any{{"a": nil}}}, "json"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"a": null`) {
		t.Fatalf("expected null cell, got %s", buf.String())
	}
	if err := WriteTable(&buf, dto.Table{}, "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

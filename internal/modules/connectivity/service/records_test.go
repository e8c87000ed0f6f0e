package service

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"connviewer/internal/modules/connectivity/domain"
)

func TestRecordPropertiesDropsOnlyIDsAndPositions(t *testing.T) {
	t.Parallel()
	rec := domain.Record{
		"id":            json.Number("7"),
		"id_ref":        json.Number("12"),
		"pt_root_id":    "864691135000000001",
		"pt_root_id_v2": "kept",
		"pt_position":   []any{1.0, 2.0, 3.0},
		"pt_position_x": 1.0,
		"pt_position_y": 2.0,
		"pt_position_z": 3.0,
		"cell_type":     "BC",
		"valid":         true,
		"notes":         nil,
	}
	got := recordProperties(rec, []string{"id", "pt_root_id"}, []string{"pt_position"})
	want := map[string]string{
		"id_ref":        "12",
		"pt_root_id_v2": "kept",
		"cell_type":     "BC",
		"valid":         "true",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
}

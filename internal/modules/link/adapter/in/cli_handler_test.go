package in

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/link/dto"
)

type recordingUsecase struct {
	synapse  dto.SynapseLinkInput
	cellType dto.CellTypeLinkInput
}

func (r *recordingUsecase) SynapseLink(_ context.Context, in dto.SynapseLinkInput) (dto.LinkOutput, error) {
	r.synapse = in
	return dto.LinkOutput{URL: "synapse"}, nil
}

func (r *recordingUsecase) CellTypeLink(_ context.Context, in dto.CellTypeLinkInput) (dto.LinkOutput, error) {
	r.cellType = in
	return dto.LinkOutput{URL: "cell-type"}, nil
}

func TestCLIHandlerBuildsInputs(t *testing.T) {
	uc := &recordingUsecase{}
	h := NewCLIHandler(uc)
	table := conndto.Table{Columns: []string{"root_id"}, Rows: []map[string]any{{"root_id": "1"}}}
	info := conndto.InfoCache{Datastack: "minnie", RootID: "9"}

	if _, err := h.SynapseLink(context.Background(), dto.TabPost, table, []int{0}, info); err != nil {
		t.Fatalf("SynapseLink: %v", err)
	}
	want := dto.SynapseLinkInput{Tab: dto.TabPost, Rows: table.Rows, Selected: []int{0}, Info: info}
	if diff := cmp.Diff(want, uc.synapse); diff != "" {
		t.Fatalf("synapse input mismatch (-want +got):\n%s", diff)
	}

	if _, err := h.PartnerCellTypeLink(context.Background(), table, nil, info); err != nil {
		t.Fatalf("PartnerCellTypeLink: %v", err)
	}
	if !uc.cellType.Partners || !uc.cellType.Multipoint {
		t.Fatalf("partner link should map synapses of partners: %+v", uc.cellType)
	}

	if _, err := h.CellTypeLink(context.Background(), table, info); err != nil {
		t.Fatalf("CellTypeLink: %v", err)
	}
	if uc.cellType.Partners || uc.cellType.Multipoint {
		t.Fatalf("table link should map somas: %+v", uc.cellType)
	}
}

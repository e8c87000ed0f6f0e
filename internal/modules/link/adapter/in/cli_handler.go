package in

import (
	"context"

	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/link/dto"
	linkin "connviewer/internal/modules/link/port/in"
)

type CLIHandler struct {
	usecase linkin.Usecase
}

func NewCLIHandler(usecase linkin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// SynapseLink links rows of the output (pre) or input (post) partner table.
func (h CLIHandler) SynapseLink(ctx context.Context, tab dto.Tab, table conndto.Table, selected []int, info conndto.InfoCache) (dto.LinkOutput, error) {
	return h.usecase.SynapseLink(ctx, dto.SynapseLinkInput{Tab: tab, Rows: table.Rows, Selected: selected, Info: info})
}

// PartnerCellTypeLink shows the partners of a cell with one layer per cell type.
func (h CLIHandler) PartnerCellTypeLink(ctx context.Context, table conndto.Table, selected []int, info conndto.InfoCache) (dto.LinkOutput, error) {
	return h.usecase.CellTypeLink(ctx, dto.CellTypeLinkInput{Rows: table.Rows, Selected: selected, Info: info, Partners: true, Multipoint: true})
}

// CellTypeLink shows the somas of a cell type table with one layer per cell type.
func (h CLIHandler) CellTypeLink(ctx context.Context, table conndto.Table, info conndto.InfoCache) (dto.LinkOutput, error) {
	return h.usecase.CellTypeLink(ctx, dto.CellTypeLinkInput{Rows: table.Rows, Info: info})
}

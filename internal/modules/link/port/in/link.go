package in

import (
	"context"

	"connviewer/internal/modules/link/dto"
)

type Usecase interface {
	SynapseLink(ctx context.Context, input dto.SynapseLinkInput) (dto.LinkOutput, error)
	CellTypeLink(ctx context.Context, input dto.CellTypeLinkInput) (dto.LinkOutput, error)
}

package in

import (
	"context"

	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/plot/dto"
)

type Usecase interface {
	Figures(ctx context.Context, input dto.FiguresInput) (dto.FiguresOutput, error)
	// FiguresFor draws charts from an already loaded connectivity result.
	FiguresFor(conn conndto.ConnectivityOutput) dto.FiguresOutput
}

package in

import (
	"context"
	"encoding/json"
	"io"

	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/plot/dto"
	plotin "connviewer/internal/modules/plot/port/in"
)

type CLIHandler struct {
	usecase plotin.Usecase
}

func NewCLIHandler(usecase plotin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// WriteFigures loads a cell and writes its plotly figures as JSON.
func (h CLIHandler) WriteFigures(ctx context.Context, w io.Writer, input conndto.ConnectivityInput) error {
	out, err := h.usecase.Figures(ctx, dto.FiguresInput{Connectivity: input})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

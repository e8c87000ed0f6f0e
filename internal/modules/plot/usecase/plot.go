package usecase

import (
	"context"

	conndto "connviewer/internal/modules/connectivity/dto"
	connin "connviewer/internal/modules/connectivity/port/in"
	"connviewer/internal/modules/plot/domain"
	"connviewer/internal/modules/plot/dto"
	plotin "connviewer/internal/modules/plot/port/in"
	"connviewer/internal/platform/config"
)

type Interactor struct {
	conn  connin.Usecase
	style domain.Style
	typed config.Typed
}

func NewInteractor(conn connin.Usecase, cfg config.Config) plotin.Usecase {
	return &Interactor{conn: conn, style: StyleFromConfig(cfg.Vis), typed: cfg.Typed}
}

// StyleFromConfig copies the chart settings out of the vis config.
func StyleFromConfig(vis config.Vis) domain.Style {
	return domain.Style{
		AxonColor:     vis.AxonColor,
		DendriteColor: vis.DendriteColor,
		EColor:        vis.EColor(),
		IColor:        vis.IColor(),
		UColor:        vis.UColor(),
		EString:       vis.EString,
		IString:       vis.IString,
		UString:       vis.UString,
		EOpacity:      vis.EOpacity,
		IOpacity:      vis.IOpacity,
		UOpacity:      vis.UOpacity,
		TickLocations: vis.TickLocations,
		TickLabels:    vis.TickLabels,
	}
}

func (i *Interactor) Figures(ctx context.Context, input dto.FiguresInput) (dto.FiguresOutput, error) {
	conn, err := i.conn.Connectivity(ctx, input.Connectivity)
	if err != nil {
		return dto.FiguresOutput{}, err
	}
	return i.FiguresFor(conn), nil
}

func (i *Interactor) FiguresFor(conn conndto.ConnectivityOutput) dto.FiguresOutput {
	out := dto.FiguresOutput{Message: conn.Message}
	if !i.typed.ShowPlots || conn.RootID == "" {
		return out
	}
	d := conn.Detail
	if i.typed.ShowDepthPlots {
		fig := domain.DepthFigure(depths(d.OutputSynapses), depths(d.InputSynapses), points(d.OutputSynapses), i.style)
		out.Depth = &fig
	}
	bar := domain.BarFigure(targets(d.Outputs), annotations(d.CellTypes), d.HasValence, i.style)
	out.Bar = &bar
	return out
}

func valence(v conndto.Valence) domain.Valence {
	switch {
	case !v.Known:
		return domain.ValenceUnknown
	case v.Inhibitory:
		return domain.ValenceInhibitory
	default:
		return domain.ValenceExcitatory
	}
}

func depths(rows []conndto.SynapseRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Depth
	}
	return out
}

func points(rows []conndto.SynapseRow) []domain.SynapsePoint {
	out := make([]domain.SynapsePoint, len(rows))
	for i, r := range rows {
		out[i] = domain.SynapsePoint{Depth: r.Depth, PartnerSomaDepth: r.PartnerSomaDepth, Valence: valence(r.PartnerValence)}
	}
	return out
}

func targets(rows []conndto.PartnerRow) []domain.Target {
	out := make([]domain.Target, len(rows))
	for i, r := range rows {
		out[i] = domain.Target{CellType: r.CellType, NumSyn: r.NumSyn}
	}
	return out
}

func annotations(rows []conndto.CellTypeRow) []domain.Annotation {
	out := make([]domain.Annotation, len(rows))
	for i, r := range rows {
		out[i] = domain.Annotation{CellType: r.CellType, Valence: valence(r.Valence)}
	}
	return out
}

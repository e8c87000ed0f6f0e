package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"connviewer/internal/modules/link/domain"
	"connviewer/internal/modules/link/dto"
	linkin "connviewer/internal/modules/link/port/in"
	"connviewer/internal/modules/link/service"
	"connviewer/internal/platform/config"
	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/id"
	"connviewer/internal/platform/logging"
	"connviewer/internal/platform/palette"
)

type Interactor struct {
	svc    *service.LinkService
	ids    id.Generator
	cols   columns
	common config.Common
	logger *zap.Logger
}

func NewInteractor(svc *service.LinkService, ids id.Generator, cfg config.Config, logger *zap.Logger) linkin.Usecase {
	return &Interactor{svc: svc, ids: ids, cols: columnsFrom(cfg), common: cfg.Common, logger: logging.OrNop(logger)}
}

func toRows(rows []map[string]any) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = domain.Row(r)
	}
	return out
}

func pick(rows []domain.Row, selected []int) ([]domain.Row, error) {
	out := make([]domain.Row, 0, len(selected))
	for _, i := range selected {
		if i < 0 || i >= len(rows) {
			return nil, fmt.Errorf("%w: selected row %d out of range [0, %d)", apperrors.ErrInvalidInput, i, len(rows))
		}
		out = append(out, rows[i])
	}
	return out, nil
}

func (i *Interactor) output(link service.Link) dto.LinkOutput {
	return dto.LinkOutput{URL: link.URL, Uploaded: link.Uploaded}
}

// SynapseLink links the synapses of a partner table. An empty table gives
// the bare viewer, no selection shows every partner by synapse count, and a
// selection groups the selected partners' synapses.
func (i *Interactor) SynapseLink(ctx context.Context, input dto.SynapseLinkInput) (dto.LinkOutput, error) {
	var outputs bool
	switch input.Tab {
	case dto.TabPre:
		outputs = true
	case dto.TabPost:
	default:
		return dto.LinkOutput{}, fmt.Errorf("%w: tab must be %q or %q, got %q", apperrors.ErrInvalidInput, dto.TabPre, dto.TabPost, input.Tab)
	}
	rows := toRows(input.Rows)
	var state domain.State
	var prefix string
	switch {
	case len(rows) == 0:
		b := baseBuilder(input.Info, i.cols)
		state, prefix = b.Render(nil, i.ids), b.URLPrefix
	case len(input.Selected) == 0:
		layer := "input_syns"
		if outputs {
			layer = "output_syns"
		}
		b := directionBuilder(input.Info, i.cols, layer)
		state, prefix = b.Render(i.byNumSyn(rows), i.ids), b.URLPrefix
	default:
		selected, err := pick(rows, input.Selected)
		if err != nil {
			return dto.LinkOutput{}, err
		}
		layer := "Input Synapses"
		if outputs {
			layer = "Output Synapses"
		}
		b := groupedBuilder(input.Info, i.cols, layer, len(selected) == 1)
		state, prefix = b.Render(selected, i.ids), b.URLPrefix
	}
	link, err := i.svc.Robust(ctx, prefix, input.Info.GlobalServer, state)
	if err != nil {
		return dto.LinkOutput{}, err
	}
	return i.output(link), nil
}

func (i *Interactor) byNumSyn(rows []domain.Row) []domain.Row {
	out := append([]domain.Row(nil), rows...)
	sort.SliceStable(out, func(a, b int) bool {
		return number(out[a][i.cols.numSyn]) > number(out[b][i.cols.numSyn])
	})
	return out
}

func number(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

// CellTypeLink shows one annotation layer per cell type, colored from the
// tab20 cycle. Without a selection the whole table is linked, which is
// refused past max_server_dataframe_length rows and always uploaded past
// max_dataframe_length rows.
func (i *Interactor) CellTypeLink(ctx context.Context, input dto.CellTypeLinkInput) (dto.LinkOutput, error) {
	rows := toRows(input.Rows)
	if len(input.Selected) > 0 {
		var err error
		if rows, err = pick(rows, input.Selected); err != nil {
			return dto.LinkOutput{}, err
		}
	}
	if len(rows) > i.common.MaxServerDataframeLength {
		return dto.LinkOutput{}, fmt.Errorf("%w: %d rows exceed the link limit of %d", apperrors.ErrTooLarge, len(rows), i.common.MaxServerDataframeLength)
	}

	mapper := domain.PointMapper{
		PointColumn:              i.cols.somaPos,
		LinkedSegmentationColumn: i.cols.somaRootID,
		SetPosition:              true,
		Multipoint:               input.Multipoint,
	}
	if input.Partners {
		mapper.PointColumn = i.cols.synPosition
		mapper.LinkedSegmentationColumn = i.cols.rootID
	}

	groups := map[string][]domain.Row{}
	var cellTypes []string
	for _, row := range rows {
		ct, _ := row[i.cols.cellType].(string)
		if ct == "" {
			ct = input.FillNull
		}
		if ct == "" {
			continue
		}
		if _, ok := groups[ct]; !ok {
			cellTypes = append(cellTypes, ct)
		}
		groups[ct] = append(groups[ct], row)
	}
	bound := [][]domain.Row{nil}
	for _, ct := range cellTypes {
		bound = append(bound, groups[ct])
	}
	colors := func(n int) string { return palette.Cycle(palette.Tab20, n) }
	chain := cellTypeBuilder(input.Info, cellTypes, colors, mapper, input.Partners)
	state := chain.Render(bound, i.ids)

	var link service.Link
	var err error
	if len(rows) > i.common.MaxDataframeLength {
		link, err = i.svc.Upload(ctx, chain.URLPrefix(), input.Info.GlobalServer, state)
	} else {
		link, err = i.svc.Robust(ctx, chain.URLPrefix(), input.Info.GlobalServer, state)
	}
	if err != nil {
		return dto.LinkOutput{}, err
	}
	i.logger.Debug("cell type link", zap.Int("rows", len(rows)), zap.Int("cell_types", len(cellTypes)), zap.Bool("uploaded", link.Uploaded))
	return i.output(link), nil
}

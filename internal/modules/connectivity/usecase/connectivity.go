package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"connviewer/internal/modules/connectivity/domain"
	"connviewer/internal/modules/connectivity/dto"
	connin "connviewer/internal/modules/connectivity/port/in"
	"connviewer/internal/modules/connectivity/service"
	"connviewer/internal/platform/config"
	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/logging"
)

// staticTTL bounds how long a materialized lookup is reused.
const staticTTL = 10 * time.Minute

type Interactor struct {
	svc    *service.NeuronService
	cfg    config.Config
	logger *zap.Logger
	static *expirable.LRU[string, dto.ConnectivityOutput]
}

func NewInteractor(svc *service.NeuronService, cfg config.Config, logger *zap.Logger) connin.Usecase {
	size := max(cfg.Server.InfoCacheSize, 1)
	return &Interactor{
		svc:    svc,
		cfg:    cfg,
		logger: logging.OrNop(logger),
		static: expirable.NewLRU[string, dto.ConnectivityOutput](size, nil, staticTTL),
	}
}

func (i *Interactor) Connectivity(ctx context.Context, input dto.ConnectivityInput) (dto.ConnectivityOutput, error) {
	raw := strings.TrimSpace(input.AnnoID)
	if raw == "" {
		return dto.EmptyConnectivity("No annotation id selected"), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return dto.ConnectivityOutput{}, fmt.Errorf("%w: annotation id %q is not an integer", apperrors.ErrInvalidInput, raw)
	}
	idType := domain.IDType(input.IDType)
	if idType == "" {
		idType = domain.IDTypeRoot
	}
	live := i.cfg.Common.LiveAllowed(input.LiveQuery)

	key := fmt.Sprintf("%s/%d/%s/%s", idType, id, input.CellTypeTable, input.Schema)
	if !live {
		if out, ok := i.static.Get(key); ok {
			i.logger.Debug("static lookup served from cache", zap.String("key", key))
			return out, nil
		}
	}
	conn, err := i.svc.Lookup(ctx, service.LookupRequest{
		ID:            id,
		IDType:        idType,
		Live:          live,
		CellTypeTable: input.CellTypeTable,
		Schema:        input.Schema,
	})
	if err != nil {
		return dto.ConnectivityOutput{}, err
	}
	out := i.present(conn)
	if !conn.Live {
		i.static.Add(key, out)
	}
	return out, nil
}

func (i *Interactor) present(conn domain.Connectivity) dto.ConnectivityOutput {
	rootID := strconv.FormatInt(conn.RootID, 10)
	info := InfoCache(i.cfg, conn.Info)
	info.RootID = rootID
	if !conn.Live {
		ts := float64(conn.Timestamp.UnixNano()) / 1e9
		info.NGLTimestamp = &ts
	}
	return dto.ConnectivityOutput{
		RootID:      rootID,
		Timestamp:   conn.Timestamp,
		Live:        conn.Live,
		Targets:     i.partnerTable(conn.Outputs),
		Sources:     i.partnerTable(conn.Inputs),
		OutputLabel: fmt.Sprintf("Output (n = %d)", conn.NumSynapses(domain.DirectionPre)),
		InputLabel:  fmt.Sprintf("Input (n = %d)", conn.NumSynapses(domain.DirectionPost)),
		Info:        info,
		Message:     fmt.Sprintf("Connectivity for root id %d", conn.RootID),
		Detail:      i.detail(conn),
	}
}

// InfoCache flattens datastack info into the form link builders read.
func InfoCache(cfg config.Config, info domain.DatastackInfo) dto.InfoCache {
	return dto.InfoCache{
		Datastack:          info.Name,
		ImageSource:        info.ImageSource,
		SegmentationSource: info.SegmentationSource,
		ViewerSite:         info.ViewerSite,
		GlobalServer:       cfg.Common.ServerAddress,
		ImageBlack:         cfg.Common.ImageBlack,
		ImageWhite:         cfg.Common.ImageWhite,
	}
}

func (i *Interactor) partnerTable(partners []domain.Partner) dto.Table {
	c, t := i.cfg.Common, i.cfg.Typed
	table := dto.Table{Columns: append([]string(nil), t.TableColumns...), Rows: make([]map[string]any, 0, len(partners))}
	for _, p := range partners {
		row := map[string]any{
			c.RootIDCol:  strconv.FormatInt(p.RootID, 10),
			c.NumSynCol:  p.NumSyn,
			c.NumSomaCol: p.NumSoma,
		}
		if ct, ok := p.Properties[t.CellTypeColumn]; ok {
			row[t.CellTypeColumn] = ct
		} else {
			row[t.CellTypeColumn] = nil
		}
		if t.SomaDepthColumn != "" {
			row[t.SomaDepthColumn] = dto.Number(p.SomaDepth)
		}
		if t.IsInhibitoryColumn != "" {
			row[t.IsInhibitoryColumn] = p.Valence.Value()
		}
		for _, rule := range c.SynapseAggregationRules {
			row[rule.Name] = dto.Number(p.Aggregates[rule.Name])
		}
		row[c.SynPtPosition] = positions(p.SynPositions)
		table.Rows = append(table.Rows, row)
	}
	return table
}

func positions(points []domain.Position) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		if p.Valid() {
			out = append(out, []float64{p[0], p[1], p[2]})
		}
	}
	return out
}

func valence(v domain.Valence) dto.Valence {
	return dto.Valence{Known: v.Known(), Inhibitory: v.Inhibitory()}
}

func (i *Interactor) detail(conn domain.Connectivity) dto.Detail {
	ctCol := i.cfg.Typed.CellTypeColumn
	d := dto.Detail{
		CellTypeColumn: ctCol,
		HasValence:     conn.ValenceMap != nil,
		SomaDepth:      conn.SomaDepth,
	}
	synRows := func(syns []domain.Synapse, dir domain.Direction) []dto.SynapseRow {
		out := make([]dto.SynapseRow, 0, len(syns))
		for _, s := range syns {
			out = append(out, dto.SynapseRow{
				PartnerRootID:    strconv.FormatInt(s.PartnerID(dir), 10),
				Depth:            s.Depth,
				PartnerCellType:  s.PartnerProps[ctCol],
				PartnerSomaDepth: s.PartnerSomaDepth,
				PartnerValence:   valence(s.PartnerValence),
			})
		}
		return out
	}
	partnerRows := func(partners []domain.Partner) []dto.PartnerRow {
		out := make([]dto.PartnerRow, 0, len(partners))
		for _, p := range partners {
			out = append(out, dto.PartnerRow{
				RootID:    strconv.FormatInt(p.RootID, 10),
				NumSyn:    p.NumSyn,
				CellType:  p.Properties[ctCol],
				SomaDepth: p.SomaDepth,
				Valence:   valence(p.Valence),
			})
		}
		return out
	}
	d.OutputSynapses = synRows(conn.PreSynapses, domain.DirectionPre)
	d.InputSynapses = synRows(conn.PostSynapses, domain.DirectionPost)
	d.Outputs = partnerRows(conn.Outputs)
	d.Inputs = partnerRows(conn.Inputs)
	for _, rec := range conn.CellTypes {
		d.CellTypes = append(d.CellTypes, dto.CellTypeRow{
			RootID:   strconv.FormatInt(rec.RootID, 10),
			CellType: rec.Properties[ctCol],
			Depth:    rec.Depth,
			Valence:  valence(rec.Valence),
		})
	}
	return d
}

// Info describes the datastack for links that are not about one cell.
func (i *Interactor) Info(ctx context.Context) (dto.InfoCache, error) {
	info, err := i.svc.Info(ctx)
	if err != nil {
		return dto.InfoCache{}, err
	}
	return InfoCache(i.cfg, info), nil
}

func (i *Interactor) CellTypeTables(context.Context) []dto.Option {
	opts := i.cfg.Typed.SelectableTables()
	out := make([]dto.Option, 0, len(opts))
	for _, opt := range opts {
		out = append(out, dto.Option{Label: opt.Label, Value: opt.Value})
	}
	return out
}

func (i *Interactor) CellTypeTable(ctx context.Context, input dto.CellTypeTableInput) (dto.Table, error) {
	if contains(i.cfg.Typed.OmitCellTypeTables, input.Table) {
		return dto.Table{}, fmt.Errorf("%w: cell type table %q is not selectable", apperrors.ErrInvalidInput, input.Table)
	}
	var rootIDs []int64
	for _, raw := range input.RootIDs {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return dto.Table{}, fmt.Errorf("%w: root id %q is not an integer", apperrors.ErrInvalidInput, raw)
		}
		rootIDs = append(rootIDs, id)
	}
	records, err := i.svc.CellTypeTable(ctx, service.CellTypeRequest{
		Table:    input.Table,
		Schema:   input.Schema,
		CellType: input.CellType,
		RootIDs:  rootIDs,
		Live:     i.cfg.Common.LiveAllowed(input.LiveQuery),
	})
	if err != nil {
		return dto.Table{}, err
	}
	return i.cellTypeTable(records), nil
}

func (i *Interactor) cellTypeTable(records []domain.CellTypeRecord) dto.Table {
	c, t := i.cfg.Common, i.cfg.Typed
	extra := map[string]bool{}
	for _, rec := range records {
		for k := range rec.Properties {
			if k != t.CellTypeColumn {
				extra[k] = true
			}
		}
	}
	extraCols := make([]string, 0, len(extra))
	for k := range extra {
		extraCols = append(extraCols, k)
	}
	sort.Strings(extraCols)

	table := dto.Table{Columns: []string{"id", c.SomaPtRootID, t.CellTypeColumn}}
	table.Columns = append(table.Columns, extraCols...)
	if t.SomaDepthColumn != "" {
		table.Columns = append(table.Columns, t.SomaDepthColumn)
	}
	if t.IsInhibitoryColumn != "" {
		table.Columns = append(table.Columns, t.IsInhibitoryColumn)
	}
	table.Rows = make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := map[string]any{
			"id":           rec.ID,
			c.SomaPtRootID: strconv.FormatInt(rec.RootID, 10),
		}
		for k, v := range rec.Properties {
			row[k] = v
		}
		if _, ok := row[t.CellTypeColumn]; !ok {
			row[t.CellTypeColumn] = nil
		}
		if rec.Position.Valid() {
			row[c.SomaPtPosition] = []float64{rec.Position[0], rec.Position[1], rec.Position[2]}
		}
		if t.SomaDepthColumn != "" {
			row[t.SomaDepthColumn] = dto.Number(rec.Depth)
		}
		if t.IsInhibitoryColumn != "" {
			row[t.IsInhibitoryColumn] = rec.Valence.Value()
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"connviewer/internal/modules/connectivity/domain"
	connout "connviewer/internal/modules/connectivity/port/out"
	"connviewer/internal/platform/clock"
	"connviewer/internal/platform/config"
	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/logging"
)

// LookupRequest identifies the cell to load and how to load it.
type LookupRequest struct {
	ID            int64
	IDType        domain.IDType
	Live          bool
	CellTypeTable string
	// Schema of the cell type table, used to pick a bridge schema.
	Schema string
}

// CellTypeRequest filters the rows of one cell type table.
type CellTypeRequest struct {
	Table    string
	Schema   string
	CellType string
	RootIDs  []int64
	Live     bool
}

type NeuronService struct {
	cfg    config.Config
	client connout.AnnotationClient
	clock  clock.Clock
	logger *zap.Logger
}

func NewNeuronService(cfg config.Config, client connout.AnnotationClient, clock clock.Clock, logger *zap.Logger) *NeuronService {
	return &NeuronService{cfg: cfg, client: client, clock: clock, logger: logging.OrNop(logger)}
}

// tables resolves the synapse and soma tables, falling back to the
// datastack defaults.
type tables struct {
	synapse string
	soma    string
}

func (s *NeuronService) tables(info domain.DatastackInfo) tables {
	t := tables{synapse: s.cfg.Common.SynapseTable, soma: s.cfg.Common.SomaTable}
	if t.synapse == "" {
		t.synapse = info.SynapseTable
	}
	if t.soma == "" {
		t.soma = info.SomaTable
	}
	return t
}

// Snapshot picks the point in time every query of one lookup reads: now for
// live queries, otherwise the latest materialization. Live queries fall back
// to static when disallowed.
func (s *NeuronService) Snapshot(ctx context.Context, live bool) (domain.Snapshot, error) {
	if s.cfg.Common.LiveAllowed(live) {
		return domain.Snapshot{Timestamp: s.clock.Now(), Live: true}, nil
	}
	v, err := s.client.LatestVersion(ctx, s.cfg.Common.Datastack)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("materialization version: %w", err)
	}
	return domain.Snapshot{Timestamp: v.Timestamp, Version: v.Number}, nil
}

func (s *NeuronService) Info(ctx context.Context) (domain.DatastackInfo, error) {
	return s.client.DatastackInfo(ctx, s.cfg.Common.Datastack)
}

func (s *NeuronService) query(table string, snap domain.Snapshot) domain.Query {
	q := domain.Query{Table: table, Timestamp: snap.Timestamp, Materialized: !snap.Live}
	if !snap.Live {
		q.Version = snap.Version
	}
	return q
}

// ResolveRootID maps a nucleus id onto the root id of its soma. Root ids are
// returned unchanged.
func (s *NeuronService) ResolveRootID(ctx context.Context, id int64, idType domain.IDType, somaTable string, snap domain.Snapshot) (int64, error) {
	switch idType {
	case domain.IDTypeRoot, "":
		return id, nil
	case domain.IDTypeNucleus:
	default:
		return 0, fmt.Errorf("%w: id type must be %q or %q, got %q", apperrors.ErrInvalidInput, domain.IDTypeRoot, domain.IDTypeNucleus, idType)
	}
	if somaTable == "" {
		return 0, fmt.Errorf("%w: no nucleus table configured", apperrors.ErrInvalidConfig)
	}
	q := s.query(somaTable, snap)
	q.Equal = map[string]any{s.cfg.Common.NucleusIDColumn: id}
	rows, err := s.client.Query(ctx, s.cfg.Common.Datastack, q)
	if err != nil {
		return 0, fmt.Errorf("nucleus lookup: %w", err)
	}
	for _, row := range rows {
		if root, ok := recordInt(row, s.cfg.Common.SomaPtRootID); ok && root != 0 {
			return root, nil
		}
	}
	return 0, fmt.Errorf("%w: nucleus id %d has no root id at %s", apperrors.ErrNotFound, id, snap.Timestamp.Format(time.RFC3339))
}

// Lookup loads and decorates the connectivity of one cell.
func (s *NeuronService) Lookup(ctx context.Context, req LookupRequest) (domain.Connectivity, error) {
	started := s.clock.Now()
	if req.ID <= 0 {
		return domain.Connectivity{}, fmt.Errorf("%w: object id must be positive", apperrors.ErrInvalidInput)
	}
	bridge, err := s.bridgeSchema(req.Schema)
	if err != nil {
		return domain.Connectivity{}, err
	}
	info, err := s.Info(ctx)
	if err != nil {
		return domain.Connectivity{}, fmt.Errorf("datastack info: %w", err)
	}
	tbl := s.tables(info)
	if tbl.synapse == "" {
		return domain.Connectivity{}, fmt.Errorf("%w: datastack %s has no synapse table", apperrors.ErrInvalidConfig, info.Name)
	}
	snap, err := s.Snapshot(ctx, req.Live)
	if err != nil {
		return domain.Connectivity{}, err
	}
	rootID, err := s.ResolveRootID(ctx, req.ID, req.IDType, tbl.soma, snap)
	if err != nil {
		return domain.Connectivity{}, err
	}

	var (
		preRows, postRows, ownSoma []domain.Record
		synRes, somaRes           domain.Resolution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := s.query(tbl.synapse, snap)
		q.Equal = map[string]any{s.cfg.Common.PrePtRootID: rootID}
		q.Columns = s.cfg.Common.SynapseTableColumnsDataframe
		rows, err := s.client.Query(gctx, s.cfg.Common.Datastack, q)
		preRows = rows
		return wrap("output synapses", err)
	})
	g.Go(func() error {
		q := s.query(tbl.synapse, snap)
		q.Equal = map[string]any{s.cfg.Common.PostPtRootID: rootID}
		q.Columns = s.cfg.Common.SynapseTableColumnsDataframe
		rows, err := s.client.Query(gctx, s.cfg.Common.Datastack, q)
		postRows = rows
		return wrap("input synapses", err)
	})
	g.Go(func() error {
		res, err := s.resolution(gctx, tbl.synapse)
		synRes = res
		return wrap("synapse table resolution", err)
	})
	if tbl.soma != "" {
		g.Go(func() error {
			q := s.query(tbl.soma, snap)
			q.Equal = map[string]any{s.cfg.Common.SomaPtRootID: rootID}
			rows, err := s.client.Query(gctx, s.cfg.Common.Datastack, q)
			ownSoma = rows
			return wrap("soma", err)
		})
		g.Go(func() error {
			res, err := s.resolution(gctx, tbl.soma)
			somaRes = res
			return wrap("soma table resolution", err)
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Connectivity{}, err
	}

	rules := s.aggregationRules()
	pre := s.decodeSynapses(preRows)
	post := s.decodeSynapses(postRows)
	outputs := domain.BuildPartners(pre, domain.DirectionPre, rules)
	inputs := domain.BuildPartners(post, domain.DirectionPost, rules)

	partnerIDs := partnerRootIDs(outputs, inputs)
	somas, cellTypes, err := s.fetchPartnerData(ctx, partnerIDs, tbl.soma, req.CellTypeTable, bridge, snap)
	if err != nil {
		return domain.Connectivity{}, err
	}
	outputs = domain.MergeCellTypes(domain.MergeSomas(outputs, somas), cellTypes)
	inputs = domain.MergeCellTypes(domain.MergeSomas(inputs, somas), cellTypes)

	deco := s.decoration(req.CellTypeTable, tbl.soma != "", somaRes, synRes)
	outputs = domain.DecoratePartners(outputs, deco)
	inputs = domain.DecoratePartners(inputs, deco)

	ownSomas := s.decodeSomas(ownSoma)
	somaPos := domain.SomaOf(rootID, ownSomas)
	result := domain.Connectivity{
		RootID:        rootID,
		Timestamp:     snap.Timestamp,
		Version:       snap.Version,
		Live:          snap.Live,
		Info:          info,
		CellTypeTable: req.CellTypeTable,
		ValenceMap:    deco.ValenceMap,
		PreSynapses:   domain.DecorateSynapses(pre, domain.DirectionPre, outputs, deco),
		PostSynapses:  domain.DecorateSynapses(post, domain.DirectionPost, inputs, deco),
		Outputs:       outputs,
		Inputs:        inputs,
		CellTypes:     domain.DecorateCellTypes(cellTypes, deco),
		SomaPosition:  somaPos,
		SomaDepth:     math.NaN(),
	}
	if tbl.soma != "" {
		result.SomaDepth = domain.ComputeDepth(somaPos, somaRes)
	}
	s.logger.Info("connectivity loaded",
		zap.Int64("root_id", rootID),
		zap.Bool("live", snap.Live),
		zap.Int("version", snap.Version),
		zap.Int("syn_out", len(pre)),
		zap.Int("syn_in", len(post)),
		zap.Int("partners", len(partnerIDs)),
		zap.Duration("elapsed", s.clock.Now().Sub(started)),
	)
	return result, nil
}

func (s *NeuronService) bridgeSchema(schema string) (string, error) {
	if schema == "" || len(s.cfg.Typed.CellTypeSchemaBridge) == 0 {
		return "", nil
	}
	bridge, ok := s.cfg.Typed.CellTypeSchemaBridge[schema]
	if !ok {
		return "", fmt.Errorf("%w: cell type schema %q is not one of %v", apperrors.ErrInvalidInput, schema, s.cfg.Typed.AllowedCellTypeSchemas)
	}
	return bridge, nil
}

func (s *NeuronService) resolution(ctx context.Context, table string) (domain.Resolution, error) {
	if r := s.cfg.Common.VoxelResolution; len(r) == 3 {
		return domain.Resolution{r[0], r[1], r[2]}, nil
	}
	return s.client.TableResolution(ctx, s.cfg.Common.Datastack, table)
}

func (s *NeuronService) decoration(cellTypeTable string, hasSoma bool, somaRes, synRes domain.Resolution) domain.Decoration {
	d := domain.Decoration{
		SomaResolution:    somaRes,
		SynapseResolution: synRes,
		SomaDepth:         s.cfg.Typed.SomaDepthColumn != "" && hasSoma,
		SynapseDepth:      s.cfg.Typed.SynapseDepthColumn != "",
	}
	if s.cfg.Typed.IsInhibitoryColumn == "" || cellTypeTable == "" {
		return d
	}
	if vm, ok := s.cfg.Typed.ValenceMapFor(cellTypeTable); ok {
		d.ValenceMap = &domain.ValenceMap{Column: vm.Column, E: vm.E, I: vm.I}
	}
	return d
}

func (s *NeuronService) aggregationRules() []domain.AggregationRule {
	out := make([]domain.AggregationRule, 0, len(s.cfg.Common.SynapseAggregationRules))
	for _, r := range s.cfg.Common.SynapseAggregationRules {
		out = append(out, domain.AggregationRule{Name: r.Name, Column: r.Column, Agg: r.Agg})
	}
	return out
}

// fetchPartnerData loads soma and cell type rows for every partner, split
// into chunks of target_root_id_per_call with at most max_chunks in flight.
func (s *NeuronService) fetchPartnerData(ctx context.Context, ids []int64, somaTable, cellTypeTable, bridge string, snap domain.Snapshot) ([]domain.SomaRecord, []domain.CellTypeRecord, error) {
	chunks := chunkIDs(ids, s.cfg.Common.TargetRootIDPerCall)
	somaRows := make([][]domain.Record, len(chunks))
	ctRows := make([][]domain.Record, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Common.MaxChunks)
	for i, chunk := range chunks {
		if somaTable != "" {
			g.Go(func() error {
				q := s.query(somaTable, snap)
				q.In = map[string][]int64{s.cfg.Common.SomaPtRootID: chunk}
				if len(s.cfg.Common.SomaTableFilter) > 0 {
					q.Equal = map[string]any{}
					for k, v := range s.cfg.Common.SomaTableFilter {
						q.Equal[k] = v
					}
				}
				rows, err := s.client.Query(gctx, s.cfg.Common.Datastack, q)
				somaRows[i] = rows
				return wrap("partner somas", err)
			})
		}
		if cellTypeTable != "" {
			g.Go(func() error {
				q := s.query(cellTypeTable, snap)
				q.In = map[string][]int64{s.cfg.Common.SomaPtRootID: chunk}
				q.BridgeSchema = bridge
				rows, err := s.client.Query(gctx, s.cfg.Common.Datastack, q)
				ctRows[i] = rows
				return wrap("cell types", err)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	var somas []domain.SomaRecord
	var cellTypes []domain.CellTypeRecord
	for i := range chunks {
		somas = append(somas, s.decodeSomas(somaRows[i])...)
		cellTypes = append(cellTypes, s.decodeCellTypes(ctRows[i])...)
	}
	return somas, cellTypes, nil
}

// CellTypeTable returns decorated rows of a cell type table, optionally
// restricted to one cell type and to a set of root ids.
func (s *NeuronService) CellTypeTable(ctx context.Context, req CellTypeRequest) ([]domain.CellTypeRecord, error) {
	if req.Table == "" {
		return nil, fmt.Errorf("%w: cell type table is required", apperrors.ErrInvalidInput)
	}
	bridge, err := s.bridgeSchema(req.Schema)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, req.Live)
	if err != nil {
		return nil, err
	}
	res, err := s.resolution(ctx, req.Table)
	if err != nil {
		return nil, wrap("cell type table resolution", err)
	}
	q := s.query(req.Table, snap)
	q.BridgeSchema = bridge
	if req.CellType != "" {
		q.Equal = map[string]any{s.cfg.Typed.CellTypeColumn: req.CellType}
	}
	var rows []domain.Record
	if len(req.RootIDs) == 0 {
		rows, err = s.client.Query(ctx, s.cfg.Common.Datastack, q)
		if err != nil {
			return nil, wrap("cell type table", err)
		}
	} else {
		for _, chunk := range chunkIDs(req.RootIDs, s.cfg.Common.TargetRootIDPerCall) {
			q.In = map[string][]int64{s.cfg.Common.SomaPtRootID: chunk}
			part, err := s.client.Query(ctx, s.cfg.Common.Datastack, q)
			if err != nil {
				return nil, wrap("cell type table", err)
			}
			rows = append(rows, part...)
		}
	}
	deco := s.decoration(req.Table, true, res, res)
	records := domain.DecorateCellTypes(s.decodeCellTypes(rows), deco)
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *NeuronService) decodeSynapses(rows []domain.Record) []domain.Synapse {
	out := make([]domain.Synapse, 0, len(rows))
	for _, row := range rows {
		syn := domain.Synapse{Position: recordPosition(row, s.cfg.Common.SynPtPosition)}
		syn.ID, _ = recordInt(row, s.cfg.Common.SynIDCol)
		syn.PreRootID, _ = recordInt(row, s.cfg.Common.PrePtRootID)
		syn.PostRootID, _ = recordInt(row, s.cfg.Common.PostPtRootID)
		if rules := s.cfg.Common.SynapseAggregationRules; len(rules) > 0 {
			syn.Values = make(map[string]float64, len(rules))
			for _, rule := range rules {
				syn.Values[rule.Column] = recordFloat(row, rule.Column)
			}
		}
		out = append(out, syn)
	}
	return out
}

func (s *NeuronService) decodeSomas(rows []domain.Record) []domain.SomaRecord {
	out := make([]domain.SomaRecord, 0, len(rows))
	for _, row := range rows {
		soma := domain.SomaRecord{Position: recordPosition(row, s.cfg.Common.SomaPtPosition)}
		soma.ID, _ = recordInt(row, s.cfg.Common.SomaIDColumn)
		soma.RootID, _ = recordInt(row, s.cfg.Common.SomaPtRootID)
		out = append(out, soma)
	}
	return out
}

func (s *NeuronService) decodeCellTypes(rows []domain.Record) []domain.CellTypeRecord {
	c := s.cfg.Common
	out := make([]domain.CellTypeRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.CellTypeRecord{
			Position:   recordPosition(row, c.SomaPtPosition),
			Properties: recordProperties(row, []string{"id", c.SomaPtRootID}, []string{c.SomaPtPosition}),
		}
		rec.ID, _ = recordInt(row, "id")
		rec.RootID, _ = recordInt(row, c.SomaPtRootID)
		out = append(out, rec)
	}
	return out
}

func partnerRootIDs(groups ...[]domain.Partner) []int64 {
	seen := map[int64]bool{}
	out := []int64{}
	for _, partners := range groups {
		for _, p := range partners {
			if p.RootID == 0 || seen[p.RootID] {
				continue
			}
			seen[p.RootID] = true
			out = append(out, p.RootID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]int64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

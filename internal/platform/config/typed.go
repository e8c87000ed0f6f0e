package config

import (
	"fmt"
	"sort"
	"strings"
)

// ValenceMap says which column of a cell type table carries the
// excitatory/inhibitory label and which values mean what.
type ValenceMap struct {
	Column string
	E      string
	I      string
}

// Option is one entry of the cell type table dropdown.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Typed holds the cell-type-aware connectivity settings.
type Typed struct {
	CellTypeColumn string
	// Empty depth or valence columns switch that decoration off.
	SomaDepthColumn    string
	SynapseDepthColumn string
	IsInhibitoryColumn string

	CellTypeDropdownOptions []Option
	DefaultCellTypeOption   string
	OmitCellTypeTables      []string

	AggregationColumns []string
	ValenceMaps        map[string]ValenceMap
	TableColumns       []string

	ShowPlots      bool
	ShowDepthPlots bool

	CellTypeSchemaBridge   map[string]string
	AllowedCellTypeSchemas []string

	LayerBounds   []float64
	HeightBounds  []float64
	TickLocations []float64
	TickLabels    []string
}

var defaultTickLabels = []string{"L1", "L2/3", "L4", "L5", "L6", "WM", ""}

func newTyped(r *reader, common Common) Typed {
	t := Typed{
		CellTypeColumn:        r.str("ct_conn_cell_type_column", "cell_type"),
		SomaDepthColumn:       r.column("ct_conn_soma_depth_column", "soma_depth"),
		SynapseDepthColumn:    r.column("ct_conn_syn_depth_column", "syn_depth"),
		IsInhibitoryColumn:    r.column("ct_conn_is_inhibitory_column", "is_inhibitory"),
		DefaultCellTypeOption: r.str("default_cell_type_option", ""),
		OmitCellTypeTables:    r.strings("omit_cell_type_tables"),
		ShowPlots:             r.boolean("ct_conn_show_plots", true),
		ShowDepthPlots:        r.boolean("ct_conn_show_depth_plots", true),
		CellTypeSchemaBridge:  r.stringMap("ct_conn_cell_type_schema"),
		LayerBounds:           r.floats("layer_bounds"),
		HeightBounds:          r.floats("height_bounds"),
		TickLabels:            append([]string(nil), defaultTickLabels...),
	}
	t.CellTypeDropdownOptions = dropdownOptions(r)

	for _, rule := range common.SynapseAggregationRules {
		t.AggregationColumns = append(t.AggregationColumns, rule.Name)
	}
	t.ValenceMaps = valenceMaps(r)

	t.TableColumns = []string{common.RootIDCol, common.NumSynCol, t.CellTypeColumn}
	for _, col := range []string{t.SomaDepthColumn, t.IsInhibitoryColumn} {
		if col != "" {
			t.TableColumns = append(t.TableColumns, col)
		}
	}
	t.TableColumns = append(t.TableColumns, t.AggregationColumns...)
	t.TableColumns = append(t.TableColumns, common.NumSomaCol)

	for schema := range t.CellTypeSchemaBridge {
		t.AllowedCellTypeSchemas = append(t.AllowedCellTypeSchemas, schema)
	}
	sort.Strings(t.AllowedCellTypeSchemas)

	if len(t.HeightBounds) == 2 {
		t.TickLocations = append(t.TickLocations, t.HeightBounds[0])
		t.TickLocations = append(t.TickLocations, t.LayerBounds...)
		t.TickLocations = append(t.TickLocations, t.HeightBounds[1])
	} else if len(t.HeightBounds) != 0 {
		r.fail("height_bounds", "two values (top, bottom)", t.HeightBounds)
	}
	return t
}

func dropdownOptions(r *reader) []Option {
	v, ok := r.lookup("cell_type_dropdown_options")
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString {
		out := []Option{}
		for _, name := range strings.Split(s, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, Option{Label: name, Value: name})
			}
		}
		return out
	}
	items, ok := v.([]any)
	if !ok {
		r.fail("cell_type_dropdown_options", "list", v)
		return nil
	}
	out := make([]Option, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			out = append(out, Option{Label: t, Value: t})
		default:
			obj, ok := asObject(item)
			if !ok {
				r.fail("cell_type_dropdown_options", "strings or {label, value} mappings", item)
				continue
			}
			value := fmt.Sprint(obj["value"])
			label, _ := obj["label"].(string)
			if label == "" {
				label = value
			}
			out = append(out, Option{Label: label, Value: value})
		}
	}
	return out
}

func valenceMaps(r *reader) map[string]ValenceMap {
	raw := r.object("valence_map")
	out := make(map[string]ValenceMap, len(raw))
	for _, table := range sortedKeys(raw) {
		body, ok := asObject(raw[table])
		if !ok {
			r.fail("valence_map."+table, "mapping with column, e, i", raw[table])
			continue
		}
		vm := ValenceMap{}
		vm.Column, _ = body["column"].(string)
		vm.E, _ = body["e"].(string)
		vm.I, _ = body["i"].(string)
		if vm.Column == "" {
			r.fail("valence_map."+table+".column", "string", body["column"])
			continue
		}
		out[table] = vm
	}
	return out
}

// ValenceMapFor returns the valence map configured for a cell type table.
func (t Typed) ValenceMapFor(table string) (ValenceMap, bool) {
	vm, ok := t.ValenceMaps[table]
	return vm, ok
}

// SelectableTables lists the dropdown options minus omitted tables.
func (t Typed) SelectableTables() []Option {
	out := make([]Option, 0, len(t.CellTypeDropdownOptions))
	for _, opt := range t.CellTypeDropdownOptions {
		if contains(t.OmitCellTypeTables, opt.Value) {
			continue
		}
		out = append(out, opt)
	}
	return out
}

package config

import (
	"fmt"
	"sort"
	"strings"
)

// AggregationRule summarises one synapse column per partner, e.g. the mean
// synapse size under the name "mean_size".
type AggregationRule struct {
	Name   string
	Column string
	Agg    string
}

// Common holds the settings shared by every connectivity view.
type Common struct {
	Datastack         string
	ServerAddress     string
	DisallowLiveQuery bool
	LiveQueryDefault  bool
	ImageBlack        float64
	ImageWhite        float64

	TargetRootIDPerCall int
	MaxChunks           int
	PoolMaxSize         int
	// VoxelResolution is nil when the table metadata should be trusted.
	VoxelResolution []float64

	MaxDataframeLength       int
	MaxServerDataframeLength int
	MaxURLLength             int

	// Empty table names are resolved through the info service.
	NucleusTable    string
	NucleusIDColumn string
	SomaTable       string
	SomaIDColumn    string
	SynapseTable    string

	SynIDCol                string
	PrePtRootID             string
	PostPtRootID            string
	SynapseAggregationRules []AggregationRule

	SynPtPrefix   string
	SynPtPosition string

	SomaPtPrefix   string
	SomaPtPosition string
	SomaPtRootID   string

	SomaCellTypeColumn    string
	SomaTableCellCategory string
	// SomaTableFilter restricts soma rows to one cell category; nil means no filter.
	SomaTableFilter map[string]string

	NumSomaPrefix   string
	NumSynCol       string
	RootIDCol       string
	NumSomaSuffix   string
	NumSomaCol      string
	SomaPositionAgg string

	SynapseTableColumnsBase      []string
	SynapseTableColumnsDataframe []string
	TargetTableDisplay           []string
	SomaTableColumns             []string
}

// BoundPosition names the position column of a bound spatial point.
func BoundPosition(prefix string) string { return prefix + "_position" }

// BoundRootID names the root id column of a bound spatial point.
func BoundRootID(prefix string) string { return prefix + "_root_id" }

func newCommon(r *reader) Common {
	c := Common{
		Datastack:                strings.TrimSpace(r.str("datastack", "")),
		ServerAddress:            strings.TrimRight(strings.TrimSpace(r.str("server_address", "")), "/"),
		DisallowLiveQuery:        r.boolean("disallow_live_query", false),
		LiveQueryDefault:         r.boolean("live_query_default", true),
		ImageBlack:               r.float("image_black", 0),
		ImageWhite:               r.float("image_white", 1),
		TargetRootIDPerCall:      r.integer("target_root_id_per_call", 200),
		MaxChunks:                r.integer("max_chunks", 20),
		VoxelResolution:          r.floats("voxel_resolution"),
		MaxDataframeLength:       r.integer("max_dataframe_length", 8_000),
		MaxServerDataframeLength: r.integer("max_server_dataframe_length", 20_000),
		MaxURLLength:             r.integer("max_url_length", 1_750_000),
		NucleusTable:             strings.TrimSpace(r.str("nucleus_table", "")),
		NucleusIDColumn:          r.str("nucleus_id_column", "id"),
		SynapseTable:             strings.TrimSpace(r.str("synapse_table", "")),
		SynIDCol:                 "id",
		PrePtRootID:              "pre_pt_root_id",
		PostPtRootID:             "post_pt_root_id",
		NumSomaPrefix:            "num",
		NumSynCol:                "num_syn",
		RootIDCol:                "root_id",
		NumSomaSuffix:            "_soma",
	}
	c.PoolMaxSize = 2 * c.MaxChunks
	c.SomaTable = c.NucleusTable
	c.SomaIDColumn = c.NucleusIDColumn
	c.SynapseAggregationRules = aggregationRules(r)

	c.SynPtPrefix = r.str("syn_position_column", "ctr_pt")
	c.SynPtPosition = BoundPosition(c.SynPtPrefix)

	somaPrefix := "pt"
	if _, ok := r.lookup("soma_postion_column"); ok {
		somaPrefix = r.str("soma_postion_column", somaPrefix)
	}
	c.SomaPtPrefix = r.str("soma_position_column", somaPrefix)
	c.SomaPtPosition = BoundPosition(c.SomaPtPrefix)
	c.SomaPtRootID = BoundRootID(c.SomaPtPrefix)

	c.SomaCellTypeColumn = r.column("soma_cell_type_column", "cell_type")
	c.SomaTableCellCategory = strings.TrimSpace(r.str("soma_table_cell_type", ""))
	if c.SomaCellTypeColumn != "" && c.SomaTableCellCategory != "" {
		c.SomaTableFilter = map[string]string{c.SomaCellTypeColumn: c.SomaTableCellCategory}
	}

	c.NumSomaCol = c.NumSomaPrefix + c.NumSomaSuffix
	c.SomaPositionAgg = c.SomaPtPosition + c.NumSomaSuffix

	c.SynapseTableColumnsBase = []string{c.SynIDCol, c.PrePtRootID, c.PostPtRootID, c.SynPtPosition}
	c.SynapseTableColumnsDataframe = append([]string(nil), c.SynapseTableColumnsBase...)
	for _, rule := range c.SynapseAggregationRules {
		if !contains(c.SynapseTableColumnsDataframe, rule.Column) {
			c.SynapseTableColumnsDataframe = append(c.SynapseTableColumnsDataframe, rule.Column)
		}
	}

	c.TargetTableDisplay = []string{c.RootIDCol, c.SynPtPosition, c.NumSynCol, c.NumSomaCol}
	for _, rule := range c.SynapseAggregationRules {
		c.TargetTableDisplay = append(c.TargetTableDisplay, rule.Name)
	}
	c.SomaTableColumns = []string{c.SomaPtRootID, c.SomaPtPosition, c.NumSomaCol}
	return c
}

var knownAggregations = map[string]bool{
	"mean": true, "sum": true, "median": true, "min": true, "max": true, "count": true, "first": true,
}

func aggregationRules(r *reader) []AggregationRule {
	raw := r.object("synapse_aggregation_rules")
	rules := make([]AggregationRule, 0, len(raw))
	for _, name := range sortedKeys(raw) {
		body, ok := asObject(raw[name])
		if !ok {
			r.fail("synapse_aggregation_rules."+name, "mapping with column and agg", raw[name])
			continue
		}
		column, _ := body["column"].(string)
		agg, _ := body["agg"].(string)
		agg = strings.ToLower(strings.TrimSpace(agg))
		if column == "" || !knownAggregations[agg] {
			r.fail("synapse_aggregation_rules."+name, "column and one of mean|sum|median|min|max|count|first", raw[name])
			continue
		}
		rules = append(rules, AggregationRule{Name: name, Column: column, Agg: agg})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules
}

// LiveAllowed reports whether a live query request can be honoured.
func (c Common) LiveAllowed(requested bool) bool {
	return requested && !c.DisallowLiveQuery
}

func (c Common) String() string {
	return fmt.Sprintf("datastack=%s server=%s", c.Datastack, c.ServerAddress)
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

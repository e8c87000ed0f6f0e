package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"connviewer/internal/platform/config"
	apperrors "connviewer/internal/platform/errors"
)

func baseSettings() config.Settings {
	return config.DefaultSettings().Merge(config.Settings{
		"datastack":      "minnie65_public",
		"server_address": "https://global.daf-apis.com/",
	})
}

func TestNewRequiresDatastackAndServer(t *testing.T) {
	t.Parallel()
	if _, err := config.New(config.DefaultSettings()); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config without datastack, got %v", err)
	}
	s := config.DefaultSettings().Merge(config.Settings{"datastack": "ds"})
	if _, err := config.New(s); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config without server address, got %v", err)
	}
}

func TestNewDerivesColumns(t *testing.T) {
	t.Parallel()
	s := baseSettings().Merge(config.Settings{
		"synapse_aggregation_rules": map[string]any{
			"mean_size": map[string]any{"column": "size", "agg": "mean"},
			"net_size":  map[string]any{"column": "size", "agg": "sum"},
		},
		"soma_table_cell_type": "neuron",
	})
	cfg, err := config.New(s)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	c := cfg.Common
	if c.ServerAddress != "https://global.daf-apis.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", c.ServerAddress)
	}
	if c.SynPtPosition != "ctr_pt_position" || c.SomaPtPosition != "pt_position" || c.SomaPtRootID != "pt_root_id" {
		t.Fatalf("unexpected bound columns: %+v", c)
	}
	if c.SomaPositionAgg != "pt_position_soma" || c.NumSomaCol != "num_soma" {
		t.Fatalf("unexpected soma aggregate columns %q %q", c.SomaPositionAgg, c.NumSomaCol)
	}
	if c.PoolMaxSize != 40 {
		t.Fatalf("pool size should double max chunks, got %d", c.PoolMaxSize)
	}
	wantDF := []string{"id", "pre_pt_root_id", "post_pt_root_id", "ctr_pt_position", "size"}
	if diff := cmp.Diff(wantDF, c.SynapseTableColumnsDataframe); diff != "" {
		t.Fatalf("dataframe columns (-want +got):\n%s", diff)
	}
	wantDisplay := []string{"root_id", "ctr_pt_position", "num_syn", "num_soma", "mean_size", "net_size"}
	if diff := cmp.Diff(wantDisplay, c.TargetTableDisplay); diff != "" {
		t.Fatalf("display columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"cell_type": "neuron"}, c.SomaTableFilter); diff != "" {
		t.Fatalf("soma filter (-want +got):\n%s", diff)
	}
	wantTable := []string{"root_id", "num_syn", "cell_type", "soma_depth", "is_inhibitory", "mean_size", "net_size", "num_soma"}
	if diff := cmp.Diff(wantTable, cfg.Typed.TableColumns); diff != "" {
		t.Fatalf("table columns (-want +got):\n%s", diff)
	}
}

func TestNullColumnDisablesDecoration(t *testing.T) {
	t.Parallel()
	s := baseSettings().Merge(config.Settings{"ct_conn_is_inhibitory_column": nil})
	cfg, err := config.New(s)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Typed.IsInhibitoryColumn != "" {
		t.Fatalf("null should disable the column, got %q", cfg.Typed.IsInhibitoryColumn)
	}
	for _, col := range cfg.Typed.TableColumns {
		if col == "is_inhibitory" {
			t.Fatalf("disabled column should not be displayed")
		}
	}
}

func TestValenceMapsAndOptions(t *testing.T) {
	t.Parallel()
	s := baseSettings().Merge(config.Settings{
		"valence_map": map[string]any{
			"aibs_soma_nuc_metamodel_preds_v117": map[string]any{
				"column": "classification_system",
				"e":      "aibs_coarse_excitatory",
				"i":      "aibs_coarse_inhibitory",
			},
		},
		"cell_type_dropdown_options": []any{
			map[string]any{"label": "Metamodel", "value": "aibs_soma_nuc_metamodel_preds_v117"},
			"allen_v1_column_types_slanted_ref",
		},
		"omit_cell_type_tables": []any{"allen_v1_column_types_slanted_ref"},
	})
	cfg, err := config.New(s)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	vm, ok := cfg.Typed.ValenceMapFor("aibs_soma_nuc_metamodel_preds_v117")
	if !ok || vm.I != "aibs_coarse_inhibitory" || vm.Column != "classification_system" {
		t.Fatalf("unexpected valence map %+v (ok=%t)", vm, ok)
	}
	if _, ok := cfg.Typed.ValenceMapFor("other"); ok {
		t.Fatalf("unknown table should have no valence map")
	}
	want := []config.Option{{Label: "Metamodel", Value: "aibs_soma_nuc_metamodel_preds_v117"}}
	if diff := cmp.Diff(want, cfg.Typed.SelectableTables()); diff != "" {
		t.Fatalf("selectable tables (-want +got):\n%s", diff)
	}
}

func TestInvalidValuesAreReported(t *testing.T) {
	t.Parallel()
	s := baseSettings().Merge(config.Settings{
		"max_chunks":       "many",
		"voxel_resolution": "4,4",
		"synapse_aggregation_rules": map[string]any{
			"bad": map[string]any{"column": "size", "agg": "mode"},
		},
	})
	_, err := config.New(s)
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	s = baseSettings().Merge(config.Settings{"ct_conn_palette_base": 12})
	if _, err := config.New(s); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected palette base error, got %v", err)
	}
}

func TestVisColors(t *testing.T) {
	t.Parallel()
	cfg, err := config.New(baseSettings().Merge(config.Settings{"ct_conn_axon_color": "#000000"}))
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	vis := cfg.Vis
	if len(vis.EColors) != 9 || len(vis.UColors) != 9 {
		t.Fatalf("palettes should have 9 colors")
	}
	if vis.UColor() != vis.UColors[4] {
		t.Fatalf("unknown color should sit two below the base index")
	}
	if vis.AxonColor.R != 0 || vis.AxonColor.G != 0 {
		t.Fatalf("hex axon color not applied: %+v", vis.AxonColor)
	}
	if got := vis.ValenceString(true, true); got != "Inh" {
		t.Fatalf("inhibitory label = %q", got)
	}
	if got := vis.ValenceString(false, true); got != "Unknown" {
		t.Fatalf("unknown label = %q", got)
	}
	if vis.ValenceColors()[vis.ValenceColorIndex(true, false)] != vis.EColor() {
		t.Fatalf("excitatory index should resolve to the excitatory color")
	}
}

func TestLoadMergesFileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	body := []byte(`
datastack: from-file
server_address: https://file.example
voxel_resolution: [4, 4, 40]
max_chunks: 5
layer_bounds: [100, 270, 390, 540, 800]
height_bounds: [0, 1000]
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("CONNVIEWER_MAX_CHUNKS", "7")
	t.Setenv("CONNVIEWER_REQUEST_TIMEOUT", "5s")
	t.Setenv("CAVE_TOKEN", "secret")

	cfg, err := config.Load(path, config.Settings{"datastack": "from-flag"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Common.Datastack != "from-flag" {
		t.Fatalf("flag override lost, got %q", cfg.Common.Datastack)
	}
	if cfg.Common.MaxChunks != 7 {
		t.Fatalf("env override lost, got %d", cfg.Common.MaxChunks)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Fatalf("timeout = %s", cfg.Server.RequestTimeout)
	}
	if cfg.Server.AuthToken != "secret" {
		t.Fatalf("token fallback not applied")
	}
	if diff := cmp.Diff([]float64{4, 4, 40}, cfg.Common.VoxelResolution); diff != "" {
		t.Fatalf("resolution (-want +got):\n%s", diff)
	}
	wantTicks := []float64{0, 100, 270, 390, 540, 800, 1000}
	if diff := cmp.Diff(wantTicks, cfg.Typed.TickLocations); diff != "" {
		t.Fatalf("ticks (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
	s, err := config.LoadSettings("")
	if err != nil || len(s) != 0 {
		t.Fatalf("blank path should yield empty settings, got %v %v", s, err)
	}
}

func TestExampleSettingsFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "..", "configs", "example.yaml"), nil)
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if diff := cmp.Diff([]float64{4, 4, 40}, cfg.Common.VoxelResolution); diff != "" {
		t.Fatalf("voxel resolution mismatch (-want +got):\n%s", diff)
	}
	wantRules := []config.AggregationRule{
		{Name: "mean_size", Column: "size", Agg: "mean"},
		{Name: "net_size", Column: "size", Agg: "sum"},
	}
	if diff := cmp.Diff(wantRules, cfg.Common.SynapseAggregationRules); diff != "" {
		t.Fatalf("aggregation rules mismatch (-want +got):\n%s", diff)
	}
	wantOptions := []config.Option{
		{Label: "AIBS Coarse", Value: "aibs_metamodel_celltypes_v661"},
		{Label: "allen_v1_column_types_slanted_ref", Value: "allen_v1_column_types_slanted_ref"},
	}
	if diff := cmp.Diff(wantOptions, cfg.Typed.CellTypeDropdownOptions); diff != "" {
		t.Fatalf("dropdown options mismatch (-want +got):\n%s", diff)
	}
	vm, ok := cfg.Typed.ValenceMapFor("aibs_metamodel_celltypes_v661")
	if !ok || vm.I != "inhibitory_neuron" {
		t.Fatalf("valence map = %+v, %v", vm, ok)
	}
	if cfg.Server.CachePath != ".cache/connviewer.db" {
		t.Fatalf("cache path = %q", cfg.Server.CachePath)
	}
}

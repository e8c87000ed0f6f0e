package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "connviewer/internal/platform/errors"
)

// EnvPrefix prefixes environment overrides, e.g. CONNVIEWER_DATASTACK.
const EnvPrefix = "CONNVIEWER_"

// Settings is the raw settings dictionary every typed config is built from.
type Settings map[string]any

// DefaultSettings holds the values used when neither the settings file nor
// the environment provides one. Required keys (datastack, server_address)
// have no default.
func DefaultSettings() Settings {
	return Settings{
		"disallow_live_query":          false,
		"live_query_default":           true,
		"image_black":                  0.0,
		"image_white":                  1.0,
		"target_root_id_per_call":      200,
		"max_chunks":                   20,
		"max_dataframe_length":         8_000,
		"max_server_dataframe_length":  20_000,
		"max_url_length":               1_750_000,
		"nucleus_id_column":            "id",
		"syn_position_column":          "ctr_pt",
		"soma_position_column":         "pt",
		"soma_cell_type_column":        "cell_type",
		"ct_conn_cell_type_column":     "cell_type",
		"ct_conn_soma_depth_column":    "soma_depth",
		"ct_conn_syn_depth_column":     "syn_depth",
		"ct_conn_is_inhibitory_column": "is_inhibitory",
		"ct_conn_show_plots":           true,
		"ct_conn_show_depth_plots":     true,
		"ct_conn_e_palette":            "RdPu",
		"ct_conn_i_palette":            "Greens",
		"ct_conn_u_palette":            "Greys",
		"ct_conn_palette_base":         6,
		"port":                         8050,
		"log_level":                    "info",
		"log_format":                   "json",
		"request_timeout":              "60s",
		"info_cache_size":              16,
	}
}

// LoadSettings reads a YAML settings file. A blank path yields an empty map.
func LoadSettings(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return Settings{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	out := Settings{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: decode settings file %s: %v", apperrors.ErrInvalidConfig, path, err)
	}
	return out, nil
}

// Merge returns a copy of s with every key of over applied on top.
func (s Settings) Merge(over Settings) Settings {
	out := make(Settings, len(s)+len(over))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// WithEnv overlays CONNVIEWER_<KEY> variables for every known key. Values stay
// strings; the typed readers parse them.
func (s Settings) WithEnv(lookup func(string) (string, bool)) Settings {
	over := Settings{}
	for _, key := range knownKeys {
		if v, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok {
			over[key] = v
		}
	}
	if _, ok := over["auth_token"]; !ok {
		if v, ok := lookup("CAVE_TOKEN"); ok {
			over["auth_token"] = v
		}
	}
	return s.Merge(over)
}

// Load resolves defaults, the settings file, the environment and the given
// overrides, in that order, into a Config.
func Load(path string, overrides Settings) (Config, error) {
	fromFile, err := LoadSettings(path)
	if err != nil {
		return Config{}, err
	}
	settings := DefaultSettings().Merge(fromFile).WithEnv(os.LookupEnv).Merge(overrides)
	return New(settings)
}

// knownKeys are the scalar keys that may be overridden from the environment.
var knownKeys = []string{
	"datastack",
	"server_address",
	"disallow_live_query",
	"live_query_default",
	"image_black",
	"image_white",
	"target_root_id_per_call",
	"max_chunks",
	"voxel_resolution",
	"max_dataframe_length",
	"max_server_dataframe_length",
	"max_url_length",
	"nucleus_table",
	"nucleus_id_column",
	"synapse_table",
	"syn_position_column",
	"soma_position_column",
	"soma_cell_type_column",
	"soma_table_cell_type",
	"ct_conn_cell_type_column",
	"ct_conn_soma_depth_column",
	"ct_conn_syn_depth_column",
	"ct_conn_is_inhibitory_column",
	"default_cell_type_option",
	"ct_conn_show_plots",
	"ct_conn_show_depth_plots",
	"ct_conn_e_palette",
	"ct_conn_i_palette",
	"ct_conn_u_palette",
	"ct_conn_palette_base",
	"ct_conn_dendrite_color",
	"ct_conn_axon_color",
	"layer_bounds",
	"height_bounds",
	"port",
	"log_level",
	"log_format",
	"request_timeout",
	"auth_token",
	"cache_path",
	"info_cache_size",
}

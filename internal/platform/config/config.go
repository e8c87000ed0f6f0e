package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "connviewer/internal/platform/errors"
)

// Config is the immutable, typed view of the settings dictionary.
type Config struct {
	Common Common
	Typed  Typed
	Vis    Vis
	Server Server
}

type Server struct {
	Port           int
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	AuthToken      string
	CachePath      string
	InfoCacheSize  int
}

// New validates settings and derives every column name the rest of the
// program reads.
func New(settings Settings) (Config, error) {
	r := &reader{s: settings}

	common := newCommon(r)
	typed := newTyped(r, common)
	server := Server{
		Port:           r.integer("port", 8050),
		LogLevel:       r.str("log_level", "info"),
		LogFormat:      r.str("log_format", "json"),
		RequestTimeout: r.duration("request_timeout", time.Minute),
		AuthToken:      strings.TrimSpace(r.str("auth_token", "")),
		CachePath:      strings.TrimSpace(r.str("cache_path", "")),
		InfoCacheSize:  r.integer("info_cache_size", 16),
	}
	vis, visErr := newVis(r, typed)
	if err := r.err(); err != nil {
		return Config{}, err
	}
	if visErr != nil {
		return Config{}, visErr
	}
	if err := validate(common, server); err != nil {
		return Config{}, err
	}
	return Config{Common: common, Typed: typed, Vis: vis, Server: server}, nil
}

func validate(common Common, server Server) error {
	if strings.TrimSpace(common.Datastack) == "" {
		return fmt.Errorf("%w: datastack is required", apperrors.ErrInvalidConfig)
	}
	if strings.TrimSpace(common.ServerAddress) == "" {
		return fmt.Errorf("%w: server_address is required", apperrors.ErrInvalidConfig)
	}
	if common.TargetRootIDPerCall <= 0 {
		return fmt.Errorf("%w: target_root_id_per_call must be positive", apperrors.ErrInvalidConfig)
	}
	if common.MaxChunks <= 0 {
		return fmt.Errorf("%w: max_chunks must be positive", apperrors.ErrInvalidConfig)
	}
	if common.VoxelResolution != nil && len(common.VoxelResolution) != 3 {
		return fmt.Errorf("%w: voxel_resolution needs 3 values, got %d", apperrors.ErrInvalidConfig, len(common.VoxelResolution))
	}
	if common.MaxURLLength <= 0 {
		return fmt.Errorf("%w: max_url_length must be positive", apperrors.ErrInvalidConfig)
	}
	if server.Port <= 0 || server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", apperrors.ErrInvalidConfig, server.Port)
	}
	return nil
}

package out

import (
	"context"

	"connviewer/internal/modules/connectivity/domain"
)

// AnnotationClient reads datastack metadata and annotation tables.
type AnnotationClient interface {
	DatastackInfo(ctx context.Context, datastack string) (domain.DatastackInfo, error)
	// LatestVersion returns the newest valid materialization.
	LatestVersion(ctx context.Context, datastack string) (domain.Version, error)
	// TableResolution returns the voxel resolution the table stores points in.
	TableResolution(ctx context.Context, datastack, table string) (domain.Resolution, error)
	Query(ctx context.Context, datastack string, query domain.Query) ([]domain.Record, error)
}

// QueryCache stores rows of materialized queries, which never change.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]domain.Record, bool, error)
	Put(ctx context.Context, key string, rows []domain.Record) error
}

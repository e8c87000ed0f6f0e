package out

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connviewer/internal/modules/connectivity/domain"
)

type countingClient struct {
	info    atomic.Int64
	queries atomic.Int64
}

func (c *countingClient) DatastackInfo(context.Context, string) (domain.DatastackInfo, error) {
	c.info.Add(1)
	return domain.DatastackInfo{Name: "minnie"}, nil
}

func (c *countingClient) LatestVersion(context.Context, string) (domain.Version, error) {
	return domain.Version{Number: 7, Timestamp: time.Unix(100, 0).UTC()}, nil
}

func (c *countingClient) TableResolution(context.Context, string, string) (domain.Resolution, error) {
	return domain.Resolution{4, 4, 40}, nil
}

func (c *countingClient) Query(context.Context, string, domain.Query) ([]domain.Record, error) {
	c.queries.Add(1)
	return []domain.Record{{"id": int64(1), "pt_root_id": "864691135000000001"}}, nil
}

func TestCachedClientCachesInfo(t *testing.T) {
	t.Parallel()
	next := &countingClient{}
	client, err := NewCachedAnnotationClient(next, nil, 4, nil)
	require.NoError(t, err)
	for range 3 {
		info, err := client.DatastackInfo(context.Background(), "minnie")
		require.NoError(t, err)
		assert.Equal(t, "minnie", info.Name)
	}
	assert.EqualValues(t, 1, next.info.Load())
}

func TestCachedClientCachesOnlyMaterializedQueries(t *testing.T) {
	t.Parallel()
	cache, err := NewSQLiteQueryCache(filepath.Join(t.TempDir(), "cache", "queries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	next := &countingClient{}
	client, err := NewCachedAnnotationClient(next, cache, 4, nil)
	require.NoError(t, err)

	static := domain.Query{Table: "nucleus", Materialized: true, Version: 7, Timestamp: time.Unix(100, 0), Equal: map[string]any{"id": int64(1)}}
	for range 2 {
		rows, err := client.Query(context.Background(), "minnie", static)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}
	assert.EqualValues(t, 1, next.queries.Load())

	live := static
	live.Materialized = false
	for range 2 {
		_, err := client.Query(context.Background(), "minnie", live)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, next.queries.Load())
}

func TestSQLiteQueryCacheRoundTrip(t *testing.T) {
	t.Parallel()
	cache, err := NewSQLiteQueryCache(filepath.Join(t.TempDir(), "queries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k", []domain.Record{{"pt_root_id": int64(864691135000000001)}}))
	rows, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "864691135000000001", rows[0]["pt_root_id"].(json.Number).String())
}

func TestQueryKeyIsStable(t *testing.T) {
	t.Parallel()
	q := domain.Query{Table: "t", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Equal: map[string]any{"a": 1, "b": 2}}
	k1, err := QueryKey("ds", q)
	require.NoError(t, err)
	k2, err := QueryKey("ds", q)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	k3, err := QueryKey("other", q)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestQueryKeyUsesMaterializedVersion(t *testing.T) {
	t.Parallel()
	v7 := domain.Query{Table: "synapses", Materialized: true, Version: 7, Timestamp: time.Unix(100, 0)}
	later := v7
	later.Timestamp = time.Unix(200, 0)
	v8 := v7
	v8.Version = 8

	k7, err := QueryKey("ds", v7)
	require.NoError(t, err)
	kLater, err := QueryKey("ds", later)
	require.NoError(t, err)
	k8, err := QueryKey("ds", v8)
	require.NoError(t, err)
	assert.Equal(t, k7, kLater)
	assert.NotEqual(t, k7, k8)
}

type blockingClient struct {
	countingClient
	entered  chan struct{}
	release  chan struct{}
	observed chan error
}

func (c *blockingClient) DatastackInfo(ctx context.Context, datastack string) (domain.DatastackInfo, error) {
	close(c.entered)
	<-c.release
	c.observed <- ctx.Err()
	return c.countingClient.DatastackInfo(ctx, datastack)
}

func TestCachedClientSharedCallOutlivesCancelledCaller(t *testing.T) {
	t.Parallel()
	next := &blockingClient{entered: make(chan struct{}), release: make(chan struct{}), observed: make(chan error, 1)}
	client, err := NewCachedAnnotationClient(next, nil, 4, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.DatastackInfo(ctx, "minnie")
		first <- err
	}()
	<-next.entered
	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(next.release)
	require.NoError(t, <-next.observed)

	require.Eventually(t, func() bool {
		info, err := client.DatastackInfo(context.Background(), "minnie")
		return err == nil && info.Name == "minnie"
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, next.info.Load())
}

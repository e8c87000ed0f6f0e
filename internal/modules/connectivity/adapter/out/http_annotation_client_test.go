package out

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connviewer/internal/modules/connectivity/domain"
	apperrors "connviewer/internal/platform/errors"
)

func newAnnotationServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /info/api/v2/datastack/full/minnie", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"aligned_volume": {"name": "minnie65", "image_source": "precomputed://img"},
			"segmentation_source": "graphene://seg", "viewer_site": "https://viewer", "synapse_table": "synapses",
			"soma_table": "nucleus", "viewer_resolution_x": 4, "viewer_resolution_y": 4, "viewer_resolution_z": 40}`))
	})
	mux.HandleFunc("GET /materialize/api/v3/datastack/minnie/versions/metadata", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"version": 3, "time_stamp": "2024-01-01T00:00:00Z", "valid": true},
			{"version": 5, "time_stamp": "2024-02-01T00:00:00Z", "valid": true},
			{"version": 6, "time_stamp": "2024-03-01T00:00:00Z", "valid": false}]`))
	})
	mux.HandleFunc("GET /materialize/api/v3/datastack/minnie/table/synapses/metadata", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"voxel_resolution_x": 4, "voxel_resolution_y": 4, "voxel_resolution_z": 40}`))
	})
	mux.HandleFunc("POST /materialize/api/v3/datastack/minnie/version/5/table/synapses/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"synapses": map[string]any{"pre_pt_root_id": []any{"864691135000000001"}}}, body["filter_in_dict"])
		_, _ = w.Write([]byte(`[{"id": 1, "pre_pt_root_id": 864691135000000001, "ctr_pt_position": [1, 2, 3]}]`))
	})
	mux.HandleFunc("POST /materialize/api/v3/datastack/minnie/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "synapses", body["table"])
		assert.Equal(t, "2025-01-02T03:04:05Z", body["timestamp"])
		http.Error(w, "table not found", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAnnotationClientInfo(t *testing.T) {
	t.Parallel()
	srv := newAnnotationServer(t)
	client := NewHTTPAnnotationClient(srv.URL+"/", "secret", time.Second, nil)

	info, err := client.DatastackInfo(context.Background(), "minnie")
	require.NoError(t, err)
	assert.Equal(t, "minnie65", info.AlignedVolume)
	assert.Equal(t, "graphene://seg", info.SegmentationSource)
	assert.Equal(t, "nucleus", info.SomaTable)
	assert.Equal(t, domain.Resolution{4, 4, 40}, info.ViewerResolution)
}

func TestHTTPAnnotationClientLatestValidVersion(t *testing.T) {
	t.Parallel()
	client := NewHTTPAnnotationClient(newAnnotationServer(t).URL, "", time.Second, nil)
	v, err := client.LatestVersion(context.Background(), "minnie")
	require.NoError(t, err)
	assert.Equal(t, domain.Version{Number: 5, Timestamp: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}, v)

	res, err := client.TableResolution(context.Background(), "minnie", "synapses")
	require.NoError(t, err)
	assert.Equal(t, domain.Resolution{4, 4, 40}, res)
}

func TestHTTPAnnotationClientMaterializedQueryKeepsRootIDPrecision(t *testing.T) {
	t.Parallel()
	client := NewHTTPAnnotationClient(newAnnotationServer(t).URL, "", time.Second, nil)
	rows, err := client.Query(context.Background(), "minnie", domain.Query{
		Table:        "synapses",
		Materialized: true,
		Version:      5,
		In:           map[string][]int64{"pre_pt_root_id": {864691135000000001}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	n, ok := rows[0]["pre_pt_root_id"].(json.Number)
	require.True(t, ok, "root ids decode as json.Number")
	assert.Equal(t, "864691135000000001", n.String())
}

func TestHTTPAnnotationClientLiveQueryErrors(t *testing.T) {
	t.Parallel()
	client := NewHTTPAnnotationClient(newAnnotationServer(t).URL, "", time.Second, nil)
	_, err := client.Query(context.Background(), "minnie", domain.Query{
		Table:     "synapses",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "table not found")

	_, err = client.DatastackInfo(context.Background(), "unknown")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHTTPAnnotationClientQueriesThePinnedVersion(t *testing.T) {
	t.Parallel()
	var versionCalls, v1Queries atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /materialize/api/v3/datastack/minnie/versions/metadata", func(w http.ResponseWriter, r *http.Request) {
		if versionCalls.Add(1) == 1 {
			_, _ = w.Write([]byte(`[{"version": 1, "time_stamp": "2024-01-01T00:00:00Z", "valid": true}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"version": 1, "time_stamp": "2024-01-01T00:00:00Z", "valid": true},
			{"version": 2, "time_stamp": "2024-02-01T00:00:00Z", "valid": true}]`))
	})
	mux.HandleFunc("POST /materialize/api/v3/datastack/minnie/version/1/table/syn/query", func(w http.ResponseWriter, r *http.Request) {
		v1Queries.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /materialize/api/v3/datastack/minnie/version/2/table/syn/query", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("query read version 2 after version 1 was pinned")
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := NewHTTPAnnotationClient(srv.URL, "", time.Second, nil)

	v, err := client.LatestVersion(context.Background(), "minnie")
	require.NoError(t, err)
	require.Equal(t, 1, v.Number)
	for range 3 {
		_, err := client.Query(context.Background(), "minnie", domain.Query{Table: "syn", Materialized: true, Version: v.Number, Timestamp: v.Timestamp})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, v1Queries.Load())
	assert.EqualValues(t, 1, versionCalls.Load())

	_, err = client.Query(context.Background(), "minnie", domain.Query{Table: "syn", Materialized: true})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

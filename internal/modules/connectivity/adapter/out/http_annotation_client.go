package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"connviewer/internal/modules/connectivity/domain"
	connout "connviewer/internal/modules/connectivity/port/out"
	apperrors "connviewer/internal/platform/errors"
	"connviewer/internal/platform/logging"
)

// HTTPAnnotationClient talks to the info, materialization and annotation
// REST APIs of a connectomics annotation service.
type HTTPAnnotationClient struct {
	base   string
	token  string
	http   *http.Client
	logger *zap.Logger
}

func NewHTTPAnnotationClient(base, token string, timeout time.Duration, logger *zap.Logger) *HTTPAnnotationClient {
	return &HTTPAnnotationClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		http:   &http.Client{Timeout: timeout},
		logger: logging.OrNop(logger),
	}
}

var _ connout.AnnotationClient = (*HTTPAnnotationClient)(nil)

type infoResponse struct {
	AlignedVolume struct {
		Name        string `json:"name"`
		ImageSource string `json:"image_source"`
	} `json:"aligned_volume"`
	SegmentationSource string  `json:"segmentation_source"`
	ViewerSite         string  `json:"viewer_site"`
	SynapseTable       string  `json:"synapse_table"`
	SomaTable          string  `json:"soma_table"`
	ViewerResolutionX  float64 `json:"viewer_resolution_x"`
	ViewerResolutionY  float64 `json:"viewer_resolution_y"`
	ViewerResolutionZ  float64 `json:"viewer_resolution_z"`
}

func (c *HTTPAnnotationClient) DatastackInfo(ctx context.Context, datastack string) (domain.DatastackInfo, error) {
	var resp infoResponse
	path := "/info/api/v2/datastack/full/" + url.PathEscape(datastack)
	if err := c.do(ctx, "info", http.MethodGet, path, nil, &resp); err != nil {
		return domain.DatastackInfo{}, err
	}
	return domain.DatastackInfo{
		Name:               datastack,
		AlignedVolume:      resp.AlignedVolume.Name,
		ImageSource:        resp.AlignedVolume.ImageSource,
		SegmentationSource: resp.SegmentationSource,
		ViewerSite:         resp.ViewerSite,
		SynapseTable:       resp.SynapseTable,
		SomaTable:          resp.SomaTable,
		ViewerResolution:   domain.Resolution{resp.ViewerResolutionX, resp.ViewerResolutionY, resp.ViewerResolutionZ},
	}, nil
}

type versionMetadata struct {
	Version   int       `json:"version"`
	TimeStamp time.Time `json:"time_stamp"`
	Valid     bool      `json:"valid"`
}

func (c *HTTPAnnotationClient) LatestVersion(ctx context.Context, datastack string) (domain.Version, error) {
	var versions []versionMetadata
	path := "/materialize/api/v3/datastack/" + url.PathEscape(datastack) + "/versions/metadata"
	if err := c.do(ctx, "versions", http.MethodGet, path, nil, &versions); err != nil {
		return domain.Version{}, err
	}
	var latest versionMetadata
	for _, v := range versions {
		if v.Valid && v.Version > latest.Version {
			latest = v
		}
	}
	if latest.Version == 0 {
		return domain.Version{}, fmt.Errorf("%w: datastack %s has no valid materialization", apperrors.ErrNotFound, datastack)
	}
	return domain.Version{Number: latest.Version, Timestamp: latest.TimeStamp.UTC()}, nil
}

type tableMetadata struct {
	VoxelResolutionX float64 `json:"voxel_resolution_x"`
	VoxelResolutionY float64 `json:"voxel_resolution_y"`
	VoxelResolutionZ float64 `json:"voxel_resolution_z"`
}

func (c *HTTPAnnotationClient) TableResolution(ctx context.Context, datastack, table string) (domain.Resolution, error) {
	var meta tableMetadata
	path := "/materialize/api/v3/datastack/" + url.PathEscape(datastack) + "/table/" + url.PathEscape(table) + "/metadata"
	if err := c.do(ctx, "table_metadata", http.MethodGet, path, nil, &meta); err != nil {
		return domain.Resolution{}, err
	}
	res := domain.Resolution{meta.VoxelResolutionX, meta.VoxelResolutionY, meta.VoxelResolutionZ}
	if res[1] == 0 {
		return domain.Resolution{}, fmt.Errorf("%w: table %s has no voxel resolution", apperrors.ErrUpstream, table)
	}
	return res, nil
}

type queryBody struct {
	Table         string                         `json:"table,omitempty"`
	Timestamp     string                         `json:"timestamp,omitempty"`
	FilterEqual   map[string]map[string]any      `json:"filter_equal_dict,omitempty"`
	FilterIn      map[string]map[string][]string `json:"filter_in_dict,omitempty"`
	SelectColumns map[string][]string            `json:"select_columns,omitempty"`
	BridgeSchema  string                         `json:"table_bridge_schema,omitempty"`
}

// Query runs a live query at the query timestamp, or a query against the
// materialized version the query names.
func (c *HTTPAnnotationClient) Query(ctx context.Context, datastack string, q domain.Query) ([]domain.Record, error) {
	body := queryBody{BridgeSchema: q.BridgeSchema}
	if len(q.Equal) > 0 {
		body.FilterEqual = map[string]map[string]any{q.Table: q.Equal}
	}
	if len(q.In) > 0 {
		in := make(map[string][]string, len(q.In))
		for col, ids := range q.In {
			// Root ids are sent as strings to survive JSON number precision.
			vals := make([]string, len(ids))
			for i, id := range ids {
				vals[i] = strconv.FormatInt(id, 10)
			}
			in[col] = vals
		}
		body.FilterIn = map[string]map[string][]string{q.Table: in}
	}
	if len(q.Columns) > 0 {
		cols := append([]string(nil), q.Columns...)
		sort.Strings(cols)
		body.SelectColumns = map[string][]string{q.Table: cols}
	}

	ds := url.PathEscape(datastack)
	var path, endpoint string
	if q.Materialized {
		if q.Version <= 0 {
			return nil, fmt.Errorf("%w: materialized query on %s has no version", apperrors.ErrInvalidInput, q.Table)
		}
		path = fmt.Sprintf("/materialize/api/v3/datastack/%s/version/%d/table/%s/query?return_json=true", ds, q.Version, url.PathEscape(q.Table))
		endpoint = "query_materialized"
	} else {
		body.Table = q.Table
		body.Timestamp = q.Timestamp.UTC().Format(time.RFC3339Nano)
		path = "/materialize/api/v3/datastack/" + ds + "/query?return_json=true"
		endpoint = "query_live"
	}
	var rows []domain.Record
	if err := c.do(ctx, endpoint, http.MethodPost, path, body, &rows); err != nil {
		return nil, err
	}
	c.logger.Debug("annotation query", zap.String("table", q.Table), zap.Bool("materialized", q.Materialized), zap.Int("rows", len(rows)))
	return rows, nil
}

func (c *HTTPAnnotationClient) do(ctx context.Context, endpoint, method, path string, in, out any) (err error) {
	timer := prometheus.NewTimer(upstreamDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()
	defer func() {
		if err != nil {
			upstreamErrors.WithLabelValues(endpoint).Inc()
		}
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		kind := apperrors.ErrUpstream
		if resp.StatusCode == http.StatusNotFound {
			kind = apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: %s returned %d: %s", kind, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperrors.ErrUpstream, endpoint, err)
	}
	return nil
}

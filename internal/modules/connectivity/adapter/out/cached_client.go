package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"connviewer/internal/modules/connectivity/domain"
	connout "connviewer/internal/modules/connectivity/port/out"
	"connviewer/internal/platform/logging"
)

// CachedAnnotationClient keeps datastack info and table resolutions in
// memory and materialized query results in a QueryCache. Live queries always
// go upstream.
type CachedAnnotationClient struct {
	next    connout.AnnotationClient
	queries connout.QueryCache
	info    *lru.Cache[string, domain.DatastackInfo]
	res     *lru.Cache[string, domain.Resolution]
	group   singleflight.Group
	logger  *zap.Logger
}

// NewCachedAnnotationClient wraps next. A nil queries cache disables query caching.
func NewCachedAnnotationClient(next connout.AnnotationClient, queries connout.QueryCache, size int, logger *zap.Logger) (*CachedAnnotationClient, error) {
	size = max(size, 1)
	info, err := lru.New[string, domain.DatastackInfo](size)
	if err != nil {
		return nil, fmt.Errorf("info cache: %w", err)
	}
	res, err := lru.New[string, domain.Resolution](size * 8)
	if err != nil {
		return nil, fmt.Errorf("resolution cache: %w", err)
	}
	return &CachedAnnotationClient{next: next, queries: queries, info: info, res: res, logger: logging.OrNop(logger)}, nil
}

var _ connout.AnnotationClient = (*CachedAnnotationClient)(nil)

func (c *CachedAnnotationClient) DatastackInfo(ctx context.Context, datastack string) (domain.DatastackInfo, error) {
	if info, ok := c.info.Get(datastack); ok {
		return info, nil
	}
	v, err := c.share(ctx, "info/"+datastack, func(ctx context.Context) (any, error) {
		info, err := c.next.DatastackInfo(ctx, datastack)
		if err != nil {
			return nil, err
		}
		c.info.Add(datastack, info)
		return info, nil
	})
	if err != nil {
		return domain.DatastackInfo{}, err
	}
	return v.(domain.DatastackInfo), nil
}

// LatestVersion is deduplicated across concurrent callers but not cached,
// since new versions appear over time.
func (c *CachedAnnotationClient) LatestVersion(ctx context.Context, datastack string) (domain.Version, error) {
	v, err := c.share(ctx, "version/"+datastack, func(ctx context.Context) (any, error) {
		return c.next.LatestVersion(ctx, datastack)
	})
	if err != nil {
		return domain.Version{}, err
	}
	return v.(domain.Version), nil
}

func (c *CachedAnnotationClient) TableResolution(ctx context.Context, datastack, table string) (domain.Resolution, error) {
	key := datastack + "/" + table
	if res, ok := c.res.Get(key); ok {
		return res, nil
	}
	v, err := c.share(ctx, "resolution/"+key, func(ctx context.Context) (any, error) {
		res, err := c.next.TableResolution(ctx, datastack, table)
		if err != nil {
			return nil, err
		}
		c.res.Add(key, res)
		return res, nil
	})
	if err != nil {
		return domain.Resolution{}, err
	}
	return v.(domain.Resolution), nil
}

// share runs fn once for all concurrent callers of key. The shared call does
// not inherit the first caller's cancellation; each caller stops waiting when
// its own ctx ends.
func (c *CachedAnnotationClient) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) { return fn(detached) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (c *CachedAnnotationClient) Query(ctx context.Context, datastack string, q domain.Query) ([]domain.Record, error) {
	if !q.Materialized || c.queries == nil {
		return c.next.Query(ctx, datastack, q)
	}
	key, err := QueryKey(datastack, q)
	if err != nil {
		return nil, err
	}
	rows, ok, err := c.queries.Get(ctx, key)
	if err != nil {
		c.logger.Warn("query cache read failed", zap.Error(err))
	}
	if ok {
		queryCacheLookups.WithLabelValues("hit").Inc()
		return rows, nil
	}
	queryCacheLookups.WithLabelValues("miss").Inc()
	rows, err = c.next.Query(ctx, datastack, q)
	if err != nil {
		return nil, err
	}
	if err := c.queries.Put(ctx, key, rows); err != nil {
		c.logger.Warn("query cache write failed", zap.Error(err))
	}
	return rows, nil
}

// QueryKey hashes a query and its datastack into a stable cache key. A
// materialized query is keyed by its version alone.
func QueryKey(datastack string, q domain.Query) (string, error) {
	q.Timestamp = q.Timestamp.UTC()
	if q.Materialized {
		q.Timestamp = time.Time{}
	}
	b, err := json.Marshal(struct {
		Datastack string
		Query     domain.Query
	}{datastack, q})
	if err != nil {
		return "", fmt.Errorf("encode query key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

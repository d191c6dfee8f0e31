// Package revcache is a read-through cache of latest(branch) -> revision_id
// (NewFromEnv gated on REDIS_ADDR, nil-safe methods). It sits in front of
// repos.RevisionRepo.Latest so a default-revision read on a hot branch
// skips a database round trip; a cache miss or a disabled cache both fall
// straight through to the wrapped repo.
package revcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/platform/envutil"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

const keyPrefix = "bimatlas:latest_rev:"

// Cache wraps a go-redis client. A nil *Cache (or one with a nil rdb) is a
// valid no-op — every method degrades to "cache miss" so callers never need
// to special-case REDIS_ADDR being unset.
type Cache struct {
	rdb *goredis.Client
	log *logger.Logger
	ttl time.Duration
}

// NewFromEnv returns a disabled *Cache if REDIS_ADDR is unset, otherwise a
// connected one. A Ping failure is returned as an error, since an operator
// who set REDIS_ADDR presumably wants to know redis is unreachable.
func NewFromEnv(log *logger.Logger) (*Cache, error) {
	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return &Cache{log: log.With("client", "revcache.Cache")}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("revcache: ping: %w", err)
	}

	return &Cache{rdb: rdb, log: log.With("client", "revcache.Cache"), ttl: 10 * time.Minute}, nil
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) get(ctx context.Context, branchID int64) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, key(branchID)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *Cache) set(ctx context.Context, branchID, revisionID int64) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key(branchID), revisionID, c.ttl).Err(); err != nil {
		c.log.Warn("revcache: set failed", "branch_id", branchID, "error", err)
	}
}

// Invalidate drops the cached latest revision for branchID. The Revision
// Writer calls this synchronously on every committed ingest so a stale
// cache entry never outlives the transaction that made it stale.
func (c *Cache) Invalidate(ctx context.Context, branchID int64) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, key(branchID)).Err(); err != nil {
		c.log.Warn("revcache: invalidate failed", "branch_id", branchID, "error", err)
	}
}

func key(branchID int64) string {
	return keyPrefix + strconv.FormatInt(branchID, 10)
}

// RevisionRepo wraps a repos.RevisionRepo, serving Latest from cache when
// possible and invalidating on Create. Every other method passes through
// unchanged.
type RevisionRepo struct {
	repos.RevisionRepo
	cache *Cache
}

func NewRevisionRepo(inner repos.RevisionRepo, cache *Cache) repos.RevisionRepo {
	return &RevisionRepo{RevisionRepo: inner, cache: cache}
}

func (r *RevisionRepo) Latest(ctx context.Context, tx *gorm.DB, branchID int64) (*types.Revision, error) {
	if id, ok := r.cache.get(ctx, branchID); ok {
		return r.RevisionRepo.GetByID(ctx, tx, id)
	}
	rev, err := r.RevisionRepo.Latest(ctx, tx, branchID)
	if err != nil {
		return nil, err
	}
	r.cache.set(ctx, branchID, rev.ID)
	return rev, nil
}

func (r *RevisionRepo) Create(ctx context.Context, tx *gorm.DB, rev *types.Revision) (*types.Revision, error) {
	created, err := r.RevisionRepo.Create(ctx, tx, rev)
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx, created.BranchID)
	return created, nil
}

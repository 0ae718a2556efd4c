package plancache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"retire-rag/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the durable layer behind the cache. Get reports found=false for an
// unknown key.
type Store interface {
	Get(ctx context.Context, key string) (plan *models.PlanResult, found bool, err error)
	Put(ctx context.Context, key string, plan *models.PlanResult) error
}

// ComputeFunc produces the plan for a cache miss.
type ComputeFunc func(ctx context.Context) (*models.PlanResult, error)

// Key hashes the canonical JSON form of v. Mapping keys are serialized in
// sorted order, so field order in the input does not affect the key.
func Key(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize cache input: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Cache is a content-addressed plan cache: an in-memory LRU in front of a
// durable Store. A store that fails to read is treated as a miss.
type Cache struct {
	store  Store
	hot    *lru.Cache[string, *models.PlanResult]
	group  singleflight.Group
	logger *zap.Logger
}

func New(store Store, size int, logger *zap.Logger) (*Cache, error) {
	if size <= 0 {
		size = 512
	}
	hot, err := lru.New[string, *models.PlanResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}
	return &Cache{
		store:  store,
		hot:    hot,
		logger: logger,
	}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*models.PlanResult, bool) {
	if plan, ok := c.hot.Get(key); ok {
		return plan, true
	}
	if c.store == nil {
		return nil, false
	}

	plan, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Plan cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found || plan == nil {
		return nil, false
	}
	c.hot.Add(key, plan)
	return plan, true
}

// Put stores plan under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, plan *models.PlanResult) {
	c.hot.Add(key, plan)
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, plan); err != nil {
		c.logger.Warn("Plan cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ComputeOrFetch returns the cached plan for key, or runs compute and caches its
// result. Concurrent callers with the same key share a single computation;
// different keys do not wait on each other. Failed computations are not cached.
func (c *Cache) ComputeOrFetch(ctx context.Context, key string, compute ComputeFunc) (*models.PlanResult, bool, error) {
	if plan, ok := c.Get(ctx, key); ok {
		return plan, true, nil
	}

	var computed bool
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if plan, ok := c.Get(ctx, key); ok {
			return plan, nil
		}
		plan, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		computed = true
		c.Put(ctx, key, plan)
		return plan, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*models.PlanResult), !computed, nil
}

func (c *Cache) Len() int {
	return c.hot.Len()
}

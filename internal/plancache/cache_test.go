package plancache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"retire-rag/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu      sync.Mutex
	plans   map[string]*models.PlanResult
	readErr error
	putErr  error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{plans: map[string]*models.PlanResult{}}
}

func (s *memStore) Get(_ context.Context, key string) (*models.PlanResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	p, ok := s.plans[key]
	return p, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, plan *models.PlanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.plans[key] = plan
	return nil
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestKey_IgnoresFieldOrder(t *testing.T) {
	a, err := Key(decode(t, `{"age":40,"income":100000,"hasMortgage":"no"}`))
	require.NoError(t, err)
	b, err := Key(decode(t, `{"hasMortgage":"no","income":100000,"age":40}`))
	require.NoError(t, err)
	c, err := Key(decode(t, `{"hasMortgage":"no","income":100001,"age":40}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = Key(map[string]any{"bad": func() {}})
	assert.Error(t, err)
}

func newPlan() *models.PlanResult {
	return &models.PlanResult{PlanID: uuid.New(), Narrative: "plan", Status: models.PlanStatusSuccess}
}

func TestComputeOrFetch_ComputesOncePerKey(t *testing.T) {
	store := newMemStore()
	c, err := New(store, 16, zap.NewNop())
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*models.PlanResult, error) {
		calls.Add(1)
		<-release
		return newPlan(), nil
	}

	const n = 20
	results := make([]*models.PlanResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plan, _, err := c.ComputeOrFetch(context.Background(), "k", compute)
			assert.NoError(t, err)
			results[i] = plan
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	plan, cached, err := c.ComputeOrFetch(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, results[0], plan)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, store.puts)
}

func TestComputeOrFetch_DifferentKeysDoNotBlock(t *testing.T) {
	c, err := New(nil, 16, zap.NewNop())
	require.NoError(t, err)

	blocked := make(chan struct{})
	go func() {
		_, _, _ = c.ComputeOrFetch(context.Background(), "slow", func(context.Context) (*models.PlanResult, error) {
			<-blocked
			return newPlan(), nil
		})
	}()
	defer close(blocked)

	done := make(chan struct{})
	go func() {
		_, _, err := c.ComputeOrFetch(context.Background(), "fast", func(context.Context) (*models.PlanResult, error) {
			return newPlan(), nil
		})
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("computation for a different key was blocked")
	}
}

func TestComputeOrFetch_ServesFromDurableStore(t *testing.T) {
	store := newMemStore()
	stored := newPlan()
	store.plans["k"] = stored

	c, err := New(store, 16, zap.NewNop())
	require.NoError(t, err)

	plan, cached, err := c.ComputeOrFetch(context.Background(), "k", func(context.Context) (*models.PlanResult, error) {
		t.Fatal("compute must not run on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, stored, plan)
	assert.Equal(t, 1, c.Len())
}

func TestComputeOrFetch_StoreFailuresAreMisses(t *testing.T) {
	store := newMemStore()
	store.readErr = errors.New("corrupt cache file")
	store.putErr = errors.New("disk full")

	c, err := New(store, 16, zap.NewNop())
	require.NoError(t, err)

	plan, cached, err := c.ComputeOrFetch(context.Background(), "k", func(context.Context) (*models.PlanResult, error) {
		return newPlan(), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, plan)

	again, cached, err := c.ComputeOrFetch(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.True(t, cached, "the hot layer still serves the plan")
	assert.Same(t, plan, again)
}

func TestComputeOrFetch_ErrorsAreNotCached(t *testing.T) {
	c, err := New(newMemStore(), 16, zap.NewNop())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = c.ComputeOrFetch(context.Background(), "k", func(context.Context) (*models.PlanResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	plan, cached, err := c.ComputeOrFetch(context.Background(), "k", func(context.Context) (*models.PlanResult, error) {
		return newPlan(), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, plan)
}

package app

import (
	"context"
	"testing"
	"time"

	"retire-rag/internal/index"
	"retire-rag/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage:   config.StorageConfig{Driver: "file", DataDir: t.TempDir()},
		Index:     config.IndexConfig{SourcePath: "missing.txt", ChunkSize: 800, ChunkOverlap: 200, Dimension: 384, PersistChunks: true},
		Facts:     config.FactsConfig{Path: "missing.json", RootKey: "retirement_facts"},
		Embedding: config.EmbeddingConfig{Host: "http://127.0.0.1:1", Model: "all-minilm", Timeout: time.Second},
		Rerank:    config.RerankConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		Generator: config.GeneratorConfig{Provider: "ollama", OllamaHost: "http://127.0.0.1:1", MaxRetries: 2, InitialBackoff: time.Second, RatePerSecond: 1},
		Retrieval: config.RetrievalConfig{K: 8, TopN: 3, ThinThreshold: 5},
		Cache:     config.CacheConfig{LRUSize: 16},
		JWT:       config.JWTConfig{SecretKey: "k", Expiration: time.Hour},
	}
}

func TestNew_FileStorage(t *testing.T) {
	a, err := New(context.Background(), fileConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Plans)
	assert.NotNil(t, a.Queries)
	assert.NotNil(t, a.Feedback)
	assert.NotNil(t, a.Auth)
	assert.Equal(t, index.StateUninitialized, a.Index.State())

	profiles, err := a.Plans.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestNew_UnknownDrivers(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Storage.Driver = "mongo"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage driver")

	cfg = fileConfig(t)
	cfg.Generator.Provider = "carrier-pigeon"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown generator provider")
}

func TestWarmUp_MissingSourceKeepsIndexUninitialized(t *testing.T) {
	a, err := New(context.Background(), fileConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	a.WarmUp(ctx)
	assert.Equal(t, index.StateUninitialized, a.Index.State())
}

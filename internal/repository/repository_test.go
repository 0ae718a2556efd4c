package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"retire-rag/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileProfileRepository_ConcurrentAppends(t *testing.T) {
	repo := NewFileProfileRepository(t.TempDir())
	ctx := context.Background()

	profiles, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, &models.UserProfile{
				ID:        uuid.New(),
				Timestamp: time.Now().UTC(),
				Data:      map[string]any{"age": float64(20 + i)},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	profiles, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, n, "no appends may be lost")
}

func TestFileProfileRepository_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileProfileRepository(dir)
	ctx := context.Background()

	p := &models.UserProfile{ID: uuid.New(), Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Data: map[string]any{"income": 85000.0}}
	require.NoError(t, repo.Create(ctx, p))

	profiles, err := NewFileProfileRepository(dir).List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, p.ID, profiles[0].ID)
	assert.True(t, p.Timestamp.Equal(profiles[0].Timestamp))
	assert.Equal(t, 85000.0, profiles[0].Data["income"])
}

func TestFileProfileRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProfilesFile), []byte("{not json"), 0o644))
	repo := NewFileProfileRepository(dir)

	_, err := repo.List(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.Create(context.Background(), &models.UserProfile{ID: uuid.New()}))
}

func TestFileFeedbackRepository(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileFeedbackRepository(dir)

	require.NoError(t, repo.Create(context.Background(), &models.Feedback{ID: uuid.New(), PlanID: "p1", Rating: 5}))
	require.NoError(t, repo.Create(context.Background(), &models.Feedback{ID: uuid.New(), PlanID: "p2", Rating: 3}))

	data, err := os.ReadFile(filepath.Join(dir, FeedbackFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"feedback_id"`)
	assert.Contains(t, string(data), `"plan_id": "p2"`)
}

func TestFilePlanRepository(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilePlanRepository(dir, zap.NewNop())
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	plan := &models.PlanResult{PlanID: uuid.New(), Narrative: "first", YearsLeft: 25}
	require.NoError(t, repo.Put(ctx, "k1", plan))

	got, found, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", got.Narrative)

	byID, err := repo.GetByPlanID(ctx, plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, 25, byID.YearsLeft)

	_, err = repo.GetByPlanID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	replaced := &models.PlanResult{PlanID: uuid.New(), Narrative: "second"}
	require.NoError(t, repo.Put(ctx, "k1", replaced))
	got, _, err = repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Narrative)
}

func TestFilePlanRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlansFile), []byte("[1,2"), 0o644))
	repo := NewFilePlanRepository(dir, zap.NewNop())
	ctx := context.Background()

	_, _, err := repo.Get(ctx, "k")
	assert.Error(t, err)

	require.NoError(t, repo.Put(ctx, "k", &models.PlanResult{PlanID: uuid.New()}))
	_, found, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFileChunkRepository(t *testing.T) {
	repo := NewFileChunkRepository(t.TempDir())
	ctx := context.Background()

	chunks := []models.TextChunk{{Content: "a", Source: "facts.txt", ChunkID: 0, CharCount: 1}}
	vectors := [][]float32{{0.5, 1.5}}
	require.NoError(t, repo.SaveChunks(ctx, "h1", chunks, vectors))

	gotChunks, gotVectors, err := repo.LoadChunks(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, chunks, gotChunks)
	assert.Equal(t, vectors, gotVectors)

	gotChunks, gotVectors, err = repo.LoadChunks(ctx, "h2")
	require.NoError(t, err)
	assert.Empty(t, gotChunks)
	assert.Empty(t, gotVectors)

	assert.Error(t, repo.SaveChunks(ctx, "h1", chunks, nil))
}

func TestPostgresQueries(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	sql, args, err := insertProfileQuery(&models.UserProfile{ID: id, Timestamp: at, Data: map[string]any{"age": 40}}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO user_profiles (id,data,created_at) VALUES ($1,$2,$3)", sql)
	assert.Len(t, args, 3)

	sql, _, err = listProfilesQuery().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, data, created_at FROM user_profiles ORDER BY created_at ASC, id ASC", sql)

	sql, args, err = insertFeedbackQuery(&models.Feedback{ID: id, PlanID: "p", Rating: 4}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO plan_feedback (id,plan_id,rating,comments,created_at) VALUES ($1,$2,$3,$4,$5)", sql)
	assert.Equal(t, 4, args[2])

	sql, _, err = upsertPlanQuery("k", id, []byte(`{}`), at).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO plan_cache (cache_key,plan_id,plan,updated_at) VALUES ($1,$2,$3,$4) ON CONFLICT (cache_key) DO UPDATE")

	sql, args, err = selectPlanQuery(map[string]any{"plan_id": id}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT plan FROM plan_cache WHERE plan_id = $1 ORDER BY updated_at DESC LIMIT 1", sql)
	assert.Equal(t, []interface{}{id}, args)

	sql, args, err = insertChunksQuery("h", []models.TextChunk{{ChunkID: 0}, {ChunkID: 1}}, [][]float32{{1}, {2}}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)")
	assert.Equal(t, pgtype.FlatArray[float32]{2}, args[11])

	sql, args, err = selectChunksQuery("h").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT chunk_id, source, content, char_count, embedding FROM index_chunks WHERE source_hash = $1 ORDER BY chunk_id ASC", sql)
	assert.Equal(t, []interface{}{"h"}, args)
}

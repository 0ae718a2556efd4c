package repository

import (
	"context"
	"errors"

	"retire-rag/internal/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// ProfileRepository is the append-only store of submitted plan inputs.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.UserProfile) error
	List(ctx context.Context) ([]*models.UserProfile, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
}

// PlanRepository is the durable plan cache, keyed by the canonical input hash.
// Put replaces any existing entry for the key.
type PlanRepository interface {
	Get(ctx context.Context, key string) (*models.PlanResult, bool, error)
	Put(ctx context.Context, key string, plan *models.PlanResult) error
	GetByPlanID(ctx context.Context, planID uuid.UUID) (*models.PlanResult, error)
}

// ChunkRepository persists embedded index chunks keyed by source document hash.
type ChunkRepository interface {
	LoadChunks(ctx context.Context, sourceHash string) ([]models.TextChunk, [][]float32, error)
	SaveChunks(ctx context.Context, sourceHash string, chunks []models.TextChunk, vectors [][]float32) error
}

type Repositories struct {
	Profiles ProfileRepository
	Feedback FeedbackRepository
	Plans    PlanRepository
	Chunks   ChunkRepository
}

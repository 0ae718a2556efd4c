package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retire-rag/internal/dto"
	"retire-rag/internal/models"
	"retire-rag/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minRating = 1
	maxRating = 5
)

type FeedbackService struct {
	repo   repository.FeedbackRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewFeedbackService(repo repository.FeedbackRepository, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Submit validates and appends a feedback record. Storage failures wrap ErrPersistence.
func (s *FeedbackService) Submit(ctx context.Context, req *dto.FeedbackRequest) (*models.Feedback, error) {
	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		return nil, fmt.Errorf("%w: plan_id is required", ErrInvalidInput)
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, minRating, maxRating)
	}

	feedback := &models.Feedback{
		ID:        uuid.New(),
		PlanID:    planID,
		Timestamp: s.now().UTC(),
		Rating:    req.Rating,
		Comments:  req.Comments,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		s.logger.Error("Failed to save feedback", zap.String("plan_id", planID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info("Feedback recorded", zap.String("feedback_id", feedback.ID.String()), zap.Int("rating", feedback.Rating))
	return feedback, nil
}

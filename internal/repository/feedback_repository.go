package repository

import (
	"context"
	"fmt"

	"retire-rag/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresFeedbackRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresFeedbackRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{
		db:     db,
		logger: logger,
	}
}

func insertFeedbackQuery(f *models.Feedback) squirrel.InsertBuilder {
	return squirrel.Insert("plan_feedback").
		Columns("id", "plan_id", "rating", "comments", "created_at").
		Values(f.ID, f.PlanID, f.Rating, f.Comments, f.Timestamp).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *PostgresFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	sql, args, err := insertFeedbackQuery(feedback).ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

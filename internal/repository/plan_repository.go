package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retire-rag/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresPlanRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewPostgresPlanRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresPlanRepository {
	return &PostgresPlanRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func upsertPlanQuery(key string, planID uuid.UUID, payload []byte, at time.Time) squirrel.InsertBuilder {
	return squirrel.Insert("plan_cache").
		Columns("cache_key", "plan_id", "plan", "updated_at").
		Values(key, planID, payload, at).
		Suffix("ON CONFLICT (cache_key) DO UPDATE SET plan_id = EXCLUDED.plan_id, plan = EXCLUDED.plan, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

func selectPlanQuery(where squirrel.Eq) squirrel.SelectBuilder {
	return squirrel.Select("plan").
		From("plan_cache").
		Where(where).
		OrderBy("updated_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *PostgresPlanRepository) Get(ctx context.Context, key string) (*models.PlanResult, bool, error) {
	plan, err := r.selectOne(ctx, squirrel.Eq{"cache_key": key})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return plan, true, nil
}

func (r *PostgresPlanRepository) Put(ctx context.Context, key string, plan *models.PlanResult) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	sql, args, err := upsertPlanQuery(key, plan.PlanID, payload, r.now()).ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to store plan: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepository) GetByPlanID(ctx context.Context, planID uuid.UUID) (*models.PlanResult, error) {
	return r.selectOne(ctx, squirrel.Eq{"plan_id": planID})
}

func (r *PostgresPlanRepository) selectOne(ctx context.Context, where squirrel.Eq) (*models.PlanResult, error) {
	sql, args, err := selectPlanQuery(where).ToSql()
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	var plan models.PlanResult
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode cached plan: %w", err)
	}
	return &plan, nil
}

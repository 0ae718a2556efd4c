package repository

import (
	"context"
	"fmt"

	"retire-rag/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresProfileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresProfileRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresProfileRepository {
	return &PostgresProfileRepository{
		db:     db,
		logger: logger,
	}
}

func insertProfileQuery(profile *models.UserProfile) squirrel.InsertBuilder {
	return squirrel.Insert("user_profiles").
		Columns("id", "data", "created_at").
		Values(profile.ID, profile.Data, profile.Timestamp).
		PlaceholderFormat(squirrel.Dollar)
}

func listProfilesQuery() squirrel.SelectBuilder {
	return squirrel.Select("id", "data", "created_at").
		From("user_profiles").
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *PostgresProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	sql, args, err := insertProfileQuery(profile).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepository) List(ctx context.Context) ([]*models.UserProfile, error) {
	sql, args, err := listProfilesQuery().ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.ID, &p.Data, &p.Timestamp); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"retire-rag/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const chunkInsertBatch = 500

type PostgresChunkRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresChunkRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresChunkRepository {
	return &PostgresChunkRepository{
		db:     db,
		logger: logger,
	}
}

func selectChunksQuery(sourceHash string) squirrel.SelectBuilder {
	return squirrel.Select("chunk_id", "source", "content", "char_count", "embedding").
		From("index_chunks").
		Where(squirrel.Eq{"source_hash": sourceHash}).
		OrderBy("chunk_id ASC").
		PlaceholderFormat(squirrel.Dollar)
}

func deleteChunksQuery() squirrel.DeleteBuilder {
	return squirrel.Delete("index_chunks").
		PlaceholderFormat(squirrel.Dollar)
}

func insertChunksQuery(sourceHash string, chunks []models.TextChunk, vectors [][]float32) squirrel.InsertBuilder {
	builder := squirrel.Insert("index_chunks").
		Columns("source_hash", "chunk_id", "source", "content", "char_count", "embedding").
		PlaceholderFormat(squirrel.Dollar)

	for i, c := range chunks {
		builder = builder.Values(sourceHash, c.ChunkID, c.Source, c.Content, c.CharCount, pgtype.FlatArray[float32](vectors[i]))
	}
	return builder
}

func (r *PostgresChunkRepository) LoadChunks(ctx context.Context, sourceHash string) ([]models.TextChunk, [][]float32, error) {
	sql, args, err := selectChunksQuery(sourceHash).ToSql()
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query index chunks: %w", err)
	}
	defer rows.Close()

	var (
		chunks  []models.TextChunk
		vectors [][]float32
	)
	for rows.Next() {
		var (
			c         models.TextChunk
			embedding pgtype.FlatArray[float32]
		)
		if err := rows.Scan(&c.ChunkID, &c.Source, &c.Content, &c.CharCount, &embedding); err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, c)
		vectors = append(vectors, []float32(embedding))
	}

	return chunks, vectors, rows.Err()
}

// SaveChunks replaces every persisted chunk with the given set in one transaction.
func (r *PostgresChunkRepository) SaveChunks(ctx context.Context, sourceHash string, chunks []models.TextChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql, args, err := deleteChunksQuery().ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to clear index chunks: %w", err)
	}

	for start := 0; start < len(chunks); start += chunkInsertBatch {
		end := min(start+chunkInsertBatch, len(chunks))
		sql, args, err := insertChunksQuery(sourceHash, chunks[start:end], vectors[start:end]).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert index chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit index chunks: %w", err)
	}
	r.logger.Info("Persisted index chunks", zap.Int("chunks", len(chunks)), zap.String("source_hash", sourceHash))
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"retire-rag/internal/retrieval"

	"go.uber.org/zap"
)

const minQueryLength = 5

type QueryService struct {
	retriever ContextRetriever
	logger    *zap.Logger
}

func NewQueryService(retriever ContextRetriever, logger *zap.Logger) *QueryService {
	return &QueryService{
		retriever: retriever,
		logger:    logger,
	}
}

// Query runs a free-form question through hybrid retrieval, refined with
// whatever age and income userData carries.
func (s *QueryService) Query(ctx context.Context, query string, userData map[string]any) (string, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return "", fmt.Errorf("%w: query must be at least %d characters", ErrInvalidInput, minQueryLength)
	}

	result := s.retriever.Retrieve(ctx, query, retrieval.UserContextFromMap(userData))
	s.logger.Debug("Query answered", zap.String("query", query), zap.Int("result_length", len(result)))
	return result, nil
}

package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retire-rag/internal/index"

	"go.uber.org/zap"
)

const (
	NoDocumentsIndexed = "No documents indexed."
	RetrievalError     = "Error retrieving relevant information."
)

// CrossEncoder scores (query, passage) pairs; higher is more relevant.
type CrossEncoder interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// IndexSource provides the built vector index together with the embedder it was built with.
type IndexSource interface {
	Ensure(ctx context.Context) (*index.Snapshot, error)
	Embedder() index.Embedder
}

type SemanticRetriever struct {
	index         IndexSource
	reranker      CrossEncoder
	embedTimeout  time.Duration
	rerankTimeout time.Duration
	logger        *zap.Logger
}

// NewSemanticRetriever creates a retriever. embedTimeout bounds the query
// embedding and rerankTimeout the scoring call; zero disables a bound.
func NewSemanticRetriever(idx IndexSource, reranker CrossEncoder, embedTimeout, rerankTimeout time.Duration, logger *zap.Logger) *SemanticRetriever {
	return &SemanticRetriever{
		index:         idx,
		reranker:      reranker,
		embedTimeout:  embedTimeout,
		rerankTimeout: rerankTimeout,
		logger:        logger,
	}
}

type scoredChunk struct {
	content string
	score   float64
}

// Retrieve returns the topN best reranked passages out of the k nearest chunks,
// separated by blank lines. Failures are reported as sentinel text.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k, topN int) string {
	snap, err := r.index.Ensure(ctx)
	if err != nil && snap.Len() == 0 {
		r.logger.Error("Index unavailable for semantic retrieval", zap.Error(err))
		return RetrievalError
	}
	if snap.Len() == 0 {
		r.logger.Warn("No documents indexed")
		return NoDocumentsIndexed
	}

	results, err := r.retrieve(ctx, snap, query, k)
	if err != nil {
		r.logger.Error("Semantic retrieval failed", zap.Error(err))
		return RetrievalError
	}

	if topN >= 0 && topN < len(results) {
		results = results[:topN]
	}
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.content
	}
	return strings.Join(parts, "\n\n")
}

func (r *SemanticRetriever) retrieve(ctx context.Context, snap *index.Snapshot, query string, k int) ([]scoredChunk, error) {
	embedCtx, cancel := withTimeout(ctx, r.embedTimeout)
	vectors, err := r.index.Embedder().Embed(embedCtx, []string{query})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	hits, err := snap.Index.Search(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	candidates := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Index < snap.Len() {
			candidates = append(candidates, snap.Chunks[h.Index].Content)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scoreCtx, cancel := withTimeout(ctx, r.rerankTimeout)
	scores, err := r.reranker.Score(scoreCtx, query, candidates)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to rerank candidates: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(candidates))
	}

	results := make([]scoredChunk, len(candidates))
	for i := range candidates {
		results[i] = scoredChunk{content: candidates[i], score: scores[i]}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	return results, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

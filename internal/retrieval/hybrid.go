package retrieval

import (
	"context"
	"fmt"
	"strings"

	"retire-rag/internal/facts"

	"go.uber.org/zap"
)

// FactSource serves the structured fact tree.
type FactSource interface {
	Tree() *facts.Tree
}

// Semantic is the embedding-based retrieval pass.
type Semantic interface {
	Retrieve(ctx context.Context, query string, k, topN int) string
}

type Options struct {
	K             int
	TopN          int
	ThinThreshold int
}

// Hybrid routes rule questions to the fact tree and open questions to semantic
// search. A structured answer shorter than ThinThreshold lines is supplemented
// with a semantic pass.
type Hybrid struct {
	facts    FactSource
	semantic Semantic
	opts     Options
	logger   *zap.Logger
}

func NewHybrid(factSource FactSource, semantic Semantic, opts Options, logger *zap.Logger) *Hybrid {
	if opts.K <= 0 {
		opts.K = 8
	}
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	if opts.ThinThreshold <= 0 {
		opts.ThinThreshold = 5
	}
	return &Hybrid{
		facts:    factSource,
		semantic: semantic,
		opts:     opts,
		logger:   logger,
	}
}

func (h *Hybrid) Retrieve(ctx context.Context, query string, uc UserContext) string {
	refined := Refine(query, uc)
	h.logger.Debug("Refined query", zap.String("query", refined))

	if !IsRuleBased(refined) {
		h.logger.Debug("Using semantic search for contextual query")
		return h.semantic.Retrieve(ctx, refined, h.opts.K, h.opts.TopN)
	}

	h.logger.Debug("Using structured retrieval for rule-based query")
	structured := SearchFacts(refined, h.facts.Tree())
	if len(strings.Split(structured, "\n")) >= h.opts.ThinThreshold {
		return structured
	}

	h.logger.Debug("Supplementing thin structured answer with semantic search")
	semantic := h.semantic.Retrieve(ctx, refined, h.opts.K, h.opts.TopN)
	return fmt.Sprintf("%s\n\nAdditional context:\n\n%s", structured, semantic)
}

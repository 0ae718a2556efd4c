package app

import (
	"context"
	"fmt"

	"retire-rag/internal/embedding"
	"retire-rag/internal/facts"
	"retire-rag/internal/index"
	"retire-rag/internal/plancache"
	"retire-rag/internal/repository"
	"retire-rag/internal/rerank"
	"retire-rag/internal/retrieval"
	"retire-rag/internal/retry"
	"retire-rag/internal/service"
	"retire-rag/pkg/auth"
	"retire-rag/pkg/config"
	"retire-rag/pkg/postgres"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultOllamaChatModel = "llama3"

// App holds the wired services shared by the server and the seed CLI.
type App struct {
	Config    *config.Config
	Index     *index.Manager
	Facts     *facts.Store
	Retriever *retrieval.Hybrid
	Plans     *service.PlanService
	Queries   *service.QueryService
	Feedback  *service.FeedbackService
	Auth      *service.AuthService
	JWT       *auth.JWTManager

	embedder *embedding.OllamaClient
	closers  []func()
	logger   *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	repos, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedder := embedding.NewOllamaClient(cfg.Embedding.Host, cfg.Embedding.Model, cfg.Index.Dimension, cfg.Embedding.Timeout)
	a.embedder = embedder
	var chunkStore index.ChunkStore
	if cfg.Index.PersistChunks {
		chunkStore = repos.Chunks
	}
	a.Index = index.NewManager(index.Options{
		SourcePath:    cfg.Index.SourcePath,
		SourceName:    cfg.Index.SourceName,
		ChunkSize:     cfg.Index.ChunkSize,
		ChunkOverlap:  cfg.Index.ChunkOverlap,
		Dimension:     cfg.Index.Dimension,
		RetryInterval: cfg.Index.RetryInterval,
	}, embedder, chunkStore, logger.Named("index"))

	a.Facts = facts.NewStore(cfg.Facts.Path, cfg.Facts.RootKey, logger.Named("facts"))

	reranker := rerank.NewClient(cfg.Rerank.URL, cfg.Rerank.Model, cfg.Rerank.Timeout)
	semantic := retrieval.NewSemanticRetriever(a.Index, reranker, cfg.Embedding.Timeout, cfg.Rerank.Timeout, logger.Named("semantic"))
	a.Retriever = retrieval.NewHybrid(a.Facts, semantic, retrieval.Options{
		K:             cfg.Retrieval.K,
		TopN:          cfg.Retrieval.TopN,
		ThinThreshold: cfg.Retrieval.ThinThreshold,
	}, logger.Named("retrieval"))

	generator, err := a.newGenerator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cache, err := plancache.New(repos.Plans, cfg.Cache.LRUSize, logger.Named("plancache"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.Generator.MaxRetries
	if cfg.Generator.InitialBackoff > 0 {
		policy.InitialBackoff = cfg.Generator.InitialBackoff
	}
	policy.AttemptTimeout = cfg.Generator.Timeout
	policy.Logger = logger.Named("generator")
	if cfg.Generator.RatePerSecond > 0 {
		policy.Limiter = rate.NewLimiter(rate.Limit(cfg.Generator.RatePerSecond), 1)
	}

	a.JWT = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	a.Plans = service.NewPlanService(cache, repos.Profiles, repos.Plans, a.Retriever, a.Facts, generator, policy, logger.Named("plan"))
	a.Queries = service.NewQueryService(a.Retriever, logger.Named("query"))
	a.Feedback = service.NewFeedbackService(repos.Feedback, logger.Named("feedback"))
	a.Auth = service.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, a.JWT, a.Index, logger.Named("admin"))

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (*repository.Repositories, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.NewPool(ctx, &cfg.Database, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db, a.logger); err != nil {
			return nil, err
		}
		return &repository.Repositories{
			Profiles: repository.NewPostgresProfileRepository(db, a.logger),
			Feedback: repository.NewPostgresFeedbackRepository(db, a.logger),
			Plans:    repository.NewPostgresPlanRepository(db, a.logger),
			Chunks:   repository.NewPostgresChunkRepository(db, a.logger),
		}, nil
	case "file", "":
		a.logger.Info("Using file storage", zap.String("data_dir", cfg.Storage.DataDir))
		return &repository.Repositories{
			Profiles: repository.NewFileProfileRepository(cfg.Storage.DataDir),
			Feedback: repository.NewFileFeedbackRepository(cfg.Storage.DataDir),
			Plans:    repository.NewFilePlanRepository(cfg.Storage.DataDir, a.logger),
			Chunks:   repository.NewFileChunkRepository(cfg.Storage.DataDir),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) newGenerator(ctx context.Context) (service.Generator, error) {
	cfg := a.Config.Generator
	switch cfg.Provider {
	case "gigachat", "":
		llm, err := service.NewLLMService(ctx, &a.Config.GigaChat, cfg.Model, a.logger.Named("gigachat"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = llm.Close() })
		return llm, nil
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = defaultOllamaChatModel
		}
		return service.NewOllamaChatService(cfg.OllamaHost, model, cfg.Temperature, cfg.Timeout, a.logger.Named("ollama")), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}

// WarmUp builds the semantic index. A failure is logged; the index is built
// again lazily on the first semantic query.
func (a *App) WarmUp(ctx context.Context) {
	if !a.embedder.IsHealthy(ctx) {
		a.logger.Warn("Embedding backend is not reachable", zap.String("model", a.embedder.Model()))
	}
	if err := a.Index.Initialize(ctx, false); err != nil {
		a.logger.Warn("Index warm-up failed", zap.Error(err))
	}
}

// Close releases storage and generator resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

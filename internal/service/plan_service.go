package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retire-rag/internal/dto"
	"retire-rag/internal/models"
	"retire-rag/internal/plancache"
	"retire-rag/internal/projection"
	"retire-rag/internal/prompt"
	"retire-rag/internal/repository"
	"retire-rag/internal/retrieval"
	"retire-rag/internal/retry"
	"retire-rag/internal/similarity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSimilarProfiles = 3

type planState string

const (
	stateValidate        planState = "VALIDATE"
	stateProject         planState = "PROJECT"
	stateRetrieveContext planState = "RETRIEVE_CONTEXT"
	stateFindSimilar     planState = "FIND_SIMILAR"
	stateBuildPrompt     planState = "BUILD_PROMPT"
	stateGenerate        planState = "GENERATE"
	stateSuccess         planState = "SUCCESS"
	stateFallback        planState = "FALLBACK"
)

// ContextRetriever produces retrieval context for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, uc retrieval.UserContext) string
}

// FactsProvider exposes the flattened facts tree.
type FactsProvider interface {
	Flattened() string
}

// PlanOutcome is a computed or cached plan together with the stored profile.
// When the profile could not be persisted ProfileID is empty and ProfileErr
// wraps ErrPersistence; the plan itself is still valid.
type PlanOutcome struct {
	Plan       *models.PlanResult
	ProfileID  string
	ProfileErr error
	Cached     bool
}

type PlanService struct {
	cache     *plancache.Cache
	profiles  repository.ProfileRepository
	plans     repository.PlanRepository
	retriever ContextRetriever
	facts     FactsProvider
	matcher   *similarity.Matcher
	generator Generator
	policy    retry.Policy
	logger    *zap.Logger

	newID func() uuid.UUID
	now   func() time.Time
}

func NewPlanService(
	cache *plancache.Cache,
	profiles repository.ProfileRepository,
	plans repository.PlanRepository,
	retriever ContextRetriever,
	facts FactsProvider,
	generator Generator,
	policy retry.Policy,
	logger *zap.Logger,
) *PlanService {
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &PlanService{
		cache:     cache,
		profiles:  profiles,
		plans:     plans,
		retriever: retriever,
		facts:     facts,
		matcher:   similarity.NewMatcher(logger),
		generator: generator,
		policy:    policy,
		logger:    logger,
		newID:     uuid.New,
		now:       time.Now,
	}
}

// CreatePlan returns the plan for in, computing it at most once per distinct
// input, and appends the raw input to the profile store.
func (s *PlanService) CreatePlan(ctx context.Context, in *dto.RetirementInput) (*PlanOutcome, error) {
	s.enter(stateValidate)
	in.ApplyDefaults()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	raw := in.ToMap()
	key, err := plancache.Key(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to derive cache key: %w", err)
	}

	plan, cached, err := s.cache.ComputeOrFetch(ctx, key, func(ctx context.Context) (*models.PlanResult, error) {
		return s.compute(ctx, in, raw)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		s.logger.Info("Returning cached plan", zap.String("plan_id", plan.PlanID.String()))
	}

	profileID, profileErr := s.saveProfile(ctx, raw)
	return &PlanOutcome{
		Plan:       plan,
		ProfileID:  profileID,
		ProfileErr: profileErr,
		Cached:     cached,
	}, nil
}

func (s *PlanService) compute(ctx context.Context, in *dto.RetirementInput, raw map[string]any) (*models.PlanResult, error) {
	s.enter(stateProject)
	profile := projection.Normalize(in)
	for _, adj := range profile.Adjustments {
		s.logger.Warn("Adjusted plan input", zap.String("adjustment", adj))
	}
	result := projection.Project(profile.ProjectionInput())

	s.enter(stateRetrieveContext)
	ragContext := s.retriever.Retrieve(ctx, strategyQuery(profile), retrieval.UserContext{
		Age:    &profile.Age,
		Income: &profile.Income,
	})

	s.enter(stateFindSimilar)
	similar := s.findSimilar(ctx, profile, raw)

	s.enter(stateBuildPrompt)
	system, user := prompt.Build(prompt.Inputs{
		Profile:    profile,
		Facts:      s.facts.Flattened(),
		RAGContext: ragContext,
		Similar:    similar,
	})

	s.enter(stateGenerate)
	narrative, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		text, err := s.generator.Generate(ctx, system, user)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Generator unavailable, using fallback plan", zap.Error(err))
		s.enter(stateFallback)
		narrative = prompt.Fallback(profile, result)
	} else {
		s.enter(stateSuccess)
	}

	return &models.PlanResult{
		PlanID:                   s.newID(),
		Narrative:                sanitizeUTF8(narrative),
		ProjectedSavings:         result.FinalProjectedSavings,
		YearsLeft:                result.YearsLeft,
		Gap:                      result.Gap,
		RequiredSavingsRate:      result.RequiredSavingsRate,
		IntermediateCalculations: result.Intermediate(),
		SimilarProfiles:          similar,
		Status:                   models.PlanStatusSuccess,
	}, nil
}

func (s *PlanService) findSimilar(ctx context.Context, profile projection.Profile, raw map[string]any) []models.SimilarProfile {
	current, err := similarity.FeaturesFromMap(raw)
	if err != nil {
		current = similarity.Features{
			Age:           float64(profile.Age),
			Income:        profile.Income,
			Savings:       profile.Savings,
			RetirementAge: float64(profile.RetirementAge),
		}
	}

	stored, err := s.profiles.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load profiles for similarity search", zap.Error(err))
		return []models.SimilarProfile{}
	}
	return s.matcher.FindSimilar(current, stored, maxSimilarProfiles)
}

func (s *PlanService) saveProfile(ctx context.Context, raw map[string]any) (string, error) {
	profile := &models.UserProfile{
		ID:        s.newID(),
		Timestamp: s.now().UTC(),
		Data:      raw,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.logger.Error("Failed to save user profile", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return profile.ID.String(), nil
}

// GetCalculations returns the per-year projection of a previously generated plan.
func (s *PlanService) GetCalculations(ctx context.Context, planID string) (*models.IntermediateCalculations, error) {
	id, err := uuid.Parse(planID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed plan id", ErrInvalidInput)
	}

	plan, err := s.plans.GetByPlanID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &plan.IntermediateCalculations, nil
}

func (s *PlanService) ListProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	if profiles == nil {
		profiles = []*models.UserProfile{}
	}
	return profiles, nil
}

func (s *PlanService) enter(state planState) {
	s.logger.Debug("Plan state", zap.String("state", string(state)))
}

func strategyQuery(p projection.Profile) string {
	q := fmt.Sprintf("retirement strategy for a %d-year-old %s %s earning %s",
		p.Age, p.Gender, p.Job, retrieval.Money(p.Income))
	return strings.Join(strings.Fields(q), " ")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/modules/achievement/dto"
	achievementRepo "anoa.com/fitquest/internal/modules/achievement/repository"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/pkg/apperror"
	"anoa.com/fitquest/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSearchLimit = 20

// StatsReader loads a user's stats; nil stats mean the user has not initialized yet.
type StatsReader interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

type AchievementService interface {
	// Catalog returns every definition, served from cache when possible.
	Catalog(ctx context.Context) ([]entity.Achievement, error)
	List(ctx context.Context) ([]dto.AchievementResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.UserAchievementResponse, error)
	Search(ctx context.Context, query dto.SearchQuery) ([]dto.AchievementResponse, error)
	Create(ctx context.Context, req dto.CreateAchievementRequest) (*dto.AchievementResponse, error)
	SeedDefaults(ctx context.Context) (int, error)
	Reindex(ctx context.Context) error
}

type achievementService struct {
	repo      achievementRepo.AchievementRepository
	stats     StatsReader
	cache     CatalogCache
	index     SearchIndex
	sanitizer *bluemonday.Policy
}

func NewAchievementService(repo achievementRepo.AchievementRepository, stats StatsReader, cache CatalogCache, index SearchIndex) AchievementService {
	return &achievementService{
		repo:      repo,
		stats:     stats,
		cache:     cache,
		index:     index,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *achievementService) Catalog(ctx context.Context) ([]entity.Achievement, error) {
	if s.cache != nil {
		if catalog, ok := s.cache.Get(ctx); ok {
			return catalog, nil
		}
	}

	catalog, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, catalog)
	}
	return catalog, nil
}

func (s *achievementService) List(ctx context.Context) ([]dto.AchievementResponse, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AchievementResponse, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, dto.NewAchievementResponse(a))
	}
	return out, nil
}

func (s *achievementService) ListForUser(ctx context.Context, userID uuid.UUID) ([]dto.UserAchievementResponse, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.repo.FindUnlockedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked achievements: %w", err)
	}

	var stats *entity.UserStats
	if s.stats != nil {
		if stats, err = s.stats.GetStats(ctx, userID); err != nil {
			return nil, err
		}
	}

	byID := make(map[uuid.UUID]entity.UserAchievement, len(unlocked))
	for _, ua := range unlocked {
		byID[ua.AchievementID] = ua
	}

	out := make([]dto.UserAchievementResponse, 0, len(catalog))
	for _, a := range catalog {
		item := dto.UserAchievementResponse{AchievementResponse: dto.NewAchievementResponse(a)}
		if ua, ok := byID[a.ID]; ok {
			unlockedAt := ua.UnlockedAt
			item.Unlocked = true
			item.UnlockedAt = &unlockedAt
			item.Progress = 100
		} else if stats != nil {
			item.Progress = progression.RequirementProgress(a, *stats)
			// A met requirement is only shown complete once the unlock is recorded.
			if item.Progress >= 100 {
				item.Progress = 99
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *achievementService) Search(ctx context.Context, query dto.SearchQuery) ([]dto.AchievementResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, query.Q, limit)
		if err == nil {
			return pickByIDs(catalog, ids), nil
		}
		logger.Logger.Warn("achievement_search_fallback", zap.String("query", query.Q), zap.Error(err))
	}

	return matchCatalog(catalog, query.Q, limit), nil
}

// pickByIDs keeps the index ranking and drops ids no longer in the catalog.
func pickByIDs(catalog []entity.Achievement, ids []uuid.UUID) []dto.AchievementResponse {
	byID := make(map[uuid.UUID]entity.Achievement, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	out := make([]dto.AchievementResponse, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, dto.NewAchievementResponse(a))
		}
	}
	return out
}

// catalogSource exposes name and description to fuzzy.FindFrom.
type catalogSource []entity.Achievement

func (c catalogSource) String(i int) string { return c[i].Name + " " + c[i].Description }
func (c catalogSource) Len() int            { return len(c) }

// matchCatalog ranks the catalog in memory when the search index is unavailable.
func matchCatalog(catalog []entity.Achievement, q string, limit int) []dto.AchievementResponse {
	out := []dto.AchievementResponse{}
	needle := strings.TrimSpace(q)
	if needle == "" {
		return out
	}
	for _, m := range fuzzy.FindFrom(needle, catalogSource(catalog)) {
		if len(out) >= limit {
			break
		}
		out = append(out, dto.NewAchievementResponse(catalog[m.Index]))
	}
	return out
}

func validateRequirements(category string, r dto.RequirementsRequest) error {
	switch category {
	case entity.CategoryConsistency:
		if r.StreakDays == nil {
			return fmt.Errorf("%w: consistency achievements need requirements.streak_days", apperror.ErrInvalidInput)
		}
	case entity.CategoryStrength:
		if r.WorkoutCount == nil {
			return fmt.Errorf("%w: strength achievements need requirements.workout_count", apperror.ErrInvalidInput)
		}
	case entity.CategoryMilestone:
		if r.Level == nil {
			return fmt.Errorf("%w: milestone achievements need requirements.level", apperror.ErrInvalidInput)
		}
	}
	return nil
}

func (s *achievementService) Create(ctx context.Context, req dto.CreateAchievementRequest) (*dto.AchievementResponse, error) {
	if err := validateRequirements(req.Category, req.Requirements); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty after sanitizing", apperror.ErrInvalidInput)
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apperror.ErrAchievementDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	reward := req.XPReward
	if reward == 0 {
		reward = progression.AchievementRewardForRarity(req.Rarity)
	}

	achievement := &entity.Achievement{
		Name:        name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		Category:    req.Category,
		Requirements: entity.AchievementRequirements{
			StreakDays:   req.Requirements.StreakDays,
			WorkoutCount: req.Requirements.WorkoutCount,
			Level:        req.Requirements.Level,
		},
		XPReward: reward,
		Rarity:   req.Rarity,
	}

	if err := s.repo.Create(ctx, achievement); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.index != nil {
		if err := s.index.Index(ctx, []entity.Achievement{*achievement}); err != nil {
			logger.Logger.Warn("achievement_index_failed", zap.String("achievement_id", achievement.ID.String()), zap.Error(err))
		}
	}

	logger.Logger.Info("achievement_created",
		zap.String("achievement_id", achievement.ID.String()),
		zap.String("category", achievement.Category),
	)

	resp := dto.NewAchievementResponse(*achievement)
	return &resp, nil
}

func (s *achievementService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, a := range DefaultCatalog() {
		a := a
		if a.XPReward == 0 {
			a.XPReward = progression.AchievementRewardForRarity(a.Rarity)
		}
		ok, err := s.repo.CreateIfMissing(ctx, &a)
		if err != nil {
			return created, fmt.Errorf("seed achievement %q: %w", a.Name, err)
		}
		if ok {
			created++
		}
	}
	if created > 0 && s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return created, nil
}

func (s *achievementService) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	catalog, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	return s.index.Index(ctx, catalog)
}

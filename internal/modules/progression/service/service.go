package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/modules/progression/dto"
	progressionRepo "anoa.com/fitquest/internal/modules/progression/repository"
	userRepo "anoa.com/fitquest/internal/modules/user/repository"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/internal/realtime"
	"anoa.com/fitquest/pkg/apperror"
	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ReferenceWorkout     = "workout"
	ReferenceStreak      = "streak"
	ReferenceAchievement = "achievement"
	ReferenceManual      = "manual"

	reminderPageSize  = 200
	maxDescriptionLen = 255
)

// CatalogProvider supplies the achievement catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) ([]entity.Achievement, error)
}

// LeaguePointsAdder credits points to the user's open cohort membership, if any.
type LeaguePointsAdder interface {
	AddPoints(ctx context.Context, userID uuid.UUID, points int) error
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	SentSince(ctx context.Context, userID uuid.UUID, notifType string, since time.Time) (bool, error)
}

type ProgressionService interface {
	InitStats(ctx context.Context, userID uuid.UUID, req dto.InitStatsRequest) (*dto.ProgressionResponse, error)
	GetProgression(ctx context.Context, userID uuid.UUID) (*dto.ProgressionResponse, error)
	AwardXP(ctx context.Context, userID uuid.UUID, req dto.AwardXPRequest) (*dto.AwardXPResponse, error)
	ValidateStreak(ctx context.Context, userID uuid.UUID) (*dto.StreakResponse, error)
	CheckAchievements(ctx context.Context, userID uuid.UUID) (*dto.AchievementCheckResponse, error)
	// CompleteWorkout applies a finished workout. When the store fails the workout is
	// queued on the event feed instead and the response is marked Queued.
	CompleteWorkout(ctx context.Context, userID uuid.UUID, req dto.CompleteWorkoutRequest) (*dto.WorkoutResponse, error)
	// RemindAtRisk notifies users whose streak ends unless they are active today.
	RemindAtRisk(ctx context.Context) (int, error)

	HandleWorkoutCompleted(ctx context.Context, e events.Event) error
	HandleActivity(ctx context.Context, e events.Event) error
}

type progressionService struct {
	repo      progressionRepo.ProgressionRepository
	userRepo  userRepo.UserRepository
	catalog   CatalogProvider
	league    LeaguePointsAdder
	notifier  Notifier
	publisher events.Publisher
	rdb       *redis.Client
	loc       *time.Location
	now       func() time.Time
}

func NewProgressionService(
	repo progressionRepo.ProgressionRepository,
	userRepo userRepo.UserRepository,
	catalog CatalogProvider,
	league LeaguePointsAdder,
	notifier Notifier,
	publisher events.Publisher,
	rdb *redis.Client,
	loc *time.Location,
) ProgressionService {
	if loc == nil {
		loc = time.UTC
	}
	return &progressionService{
		repo:      repo,
		userRepo:  userRepo,
		catalog:   catalog,
		league:    league,
		notifier:  notifier,
		publisher: publisher,
		rdb:       rdb,
		loc:       loc,
		now:       time.Now,
	}
}

// change accumulates one operation's effect on a locked stats row.
type change struct {
	userID  uuid.UUID
	before  entity.UserStats
	stats   entity.UserStats
	xp      float64
	logs    []entity.XPLog
	unlocks []progression.Unlock
	streak  *progression.StreakResult
	rewards progression.LevelRewards
	at      time.Time
}

func (c *change) award(sources []progression.XPSource, referenceType string) (progression.AwardResult, error) {
	res, err := progression.AwardXP(&c.stats, sources)
	if err != nil {
		return res, err
	}
	c.stats = res.Stats
	c.addLog(res.TotalXP, describe(sources), referenceType)
	return res, nil
}

func (c *change) addLog(amount float64, description, referenceType string) {
	c.xp += amount
	c.logs = append(c.logs, entity.XPLog{
		UserID:        c.userID,
		Amount:        amount,
		Description:   description,
		ReferenceType: referenceType,
		CreatedAt:     c.at,
	})
}

func (c *change) validateStreak(loc *time.Location) error {
	res, err := progression.ValidateStreak(&c.stats, c.at, loc)
	if err != nil {
		return err
	}
	c.stats = res.Stats
	c.streak = &res
	if res.Bonus != nil {
		c.addLog(res.Bonus.TotalXP, progression.StreakMilestoneSource(res.Stats.StreakCount).Description, ReferenceStreak)
	}
	return nil
}

func (c *change) evaluate(catalog []entity.Achievement, unlocked []uuid.UUID) {
	res := progression.EvaluateAchievements(&c.stats, catalog, unlocked, c.at)
	for _, skipped := range res.Skipped {
		logger.Logger.Warn("achievement_skipped",
			zap.String("achievement_id", skipped.AchievementID.String()),
			zap.String("name", skipped.Name),
			zap.Error(skipped.Reason),
		)
	}
	c.stats = res.Stats
	for _, u := range res.Unlocks {
		c.unlocks = append(c.unlocks, u)
		c.addLog(u.Award.TotalXP, "Achievement: "+u.Achievement.Name, ReferenceAchievement)
	}
}

func describe(sources []progression.XPSource) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Description != "" {
			parts = append(parts, s.Description)
		}
	}
	return truncateRunes(strings.Join(parts, "; "), maxDescriptionLen)
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > max {
			break
		}
		cut += size
	}
	return s[:cut]
}

// apply runs step against the user's stats row locked for the rest of the transaction,
// then grants level rewards once against the starting level and persists everything.
func (s *progressionService) apply(ctx context.Context, userID uuid.UUID, at time.Time, step func(tx progressionRepo.ProgressionRepository, c *change) error) (*change, error) {
	var c *change
	err := s.repo.Transaction(ctx, func(tx progressionRepo.ProgressionRepository) error {
		stats, err := tx.GetStatsForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		if stats == nil {
			return apperror.ErrStatsNotInitialized
		}

		c = &change{userID: userID, before: *stats, stats: *stats, at: at}
		if err := step(tx, c); err != nil {
			return err
		}

		c.rewards = progression.RewardsForLevelChange(c.before.Level, c.stats.Level)
		c.stats.ShieldCount += c.rewards.Shields

		if err := tx.SaveStats(ctx, &c.stats); err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
		if err := tx.CreateXPLogs(ctx, c.logs); err != nil {
			return fmt.Errorf("write xp log: %w", err)
		}
		if len(c.unlocks) > 0 {
			records := make([]entity.UserAchievement, 0, len(c.unlocks))
			for _, u := range c.unlocks {
				records = append(records, u.Record)
			}
			if _, err := tx.InsertUserAchievements(ctx, records); err != nil {
				return fmt.Errorf("record unlocks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, c)
	return c, nil
}

// afterCommit emits the side effects of a committed change. Failures are logged only.
func (s *progressionService) afterCommit(ctx context.Context, c *change) {
	if c.xp > 0 {
		metrics.XPAwarded.Add(c.xp)
	}
	if c.stats.Level > c.before.Level {
		metrics.LevelUps.Inc()
	}
	if c.streak != nil {
		metrics.StreakTransitions.WithLabelValues(string(c.streak.Transition)).Inc()
	}
	for _, u := range c.unlocks {
		metrics.AchievementsUnlocked.WithLabelValues(u.Achievement.Rarity).Inc()
	}

	s.notifyChange(ctx, c)

	if points := progression.LeaguePointsForXP(c.xp); points > 0 && s.league != nil {
		if err := s.league.AddPoints(ctx, c.userID, points); err != nil {
			logger.Logger.Warn("league_points_failed",
				zap.String("user_id", c.userID.String()),
				zap.Int("points", points),
				zap.Error(err),
			)
		}
	}

	s.publishSnapshot(ctx, c.stats)

	logger.Logger.Info("progression_applied",
		zap.String("user_id", c.userID.String()),
		zap.Float64("xp", c.xp),
		zap.Int("level", c.stats.Level),
		zap.Int("streak", c.stats.StreakCount),
		zap.Int("unlocks", len(c.unlocks)),
	)
}

func (s *progressionService) notifyChange(ctx context.Context, c *change) {
	if s.notifier == nil {
		return
	}
	var notes []*entity.Notification

	if c.streak != nil && c.streak.Milestone {
		notes = append(notes, &entity.Notification{
			UserID: c.userID, EntityID: c.userID, EntityType: "progression",
			Type:    entity.NotificationStreakMilestone,
			Message: fmt.Sprintf("%s +%d XP", progression.StreakMilestoneSource(c.stats.StreakCount).Description, progression.XPStreakMilestone),
		})
	}
	for _, u := range c.unlocks {
		notes = append(notes, &entity.Notification{
			UserID: c.userID, EntityID: u.Achievement.ID, EntityType: "achievement",
			Type:    entity.NotificationAchievement,
			Message: fmt.Sprintf("Achievement unlocked: %s (+%d XP)", u.Achievement.Name, u.Achievement.XPReward),
		})
	}
	if c.stats.Level > c.before.Level {
		msg := fmt.Sprintf("You reached level %d!", c.stats.Level)
		if c.rewards.Shields > 0 {
			msg = fmt.Sprintf("You reached level %d and earned %d streak shield(s)!", c.stats.Level, c.rewards.Shields)
		}
		notes = append(notes, &entity.Notification{
			UserID: c.userID, EntityID: c.userID, EntityType: "progression",
			Type:    entity.NotificationLevelUp,
			Message: msg,
		})
	}
	for _, threshold := range c.rewards.Evolutions {
		notes = append(notes, &entity.Notification{
			UserID: c.userID, EntityID: c.userID, EntityType: "progression",
			Type:    entity.NotificationAvatarEvolution,
			Message: fmt.Sprintf("Your avatar evolved into %s!", progression.AvatarStage(threshold)),
		})
	}

	for _, n := range notes {
		if err := s.notifier.CreateNotification(ctx, n); err != nil {
			logger.Logger.Warn("notification_create_failed",
				zap.String("user_id", c.userID.String()),
				zap.String("type", n.Type),
				zap.Error(err),
			)
		}
	}
}

func (s *progressionService) publishSnapshot(ctx context.Context, stats entity.UserStats) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(dto.NewProgressionResponse(stats, s.now(), s.loc))
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, realtime.UserProgressionChannel(stats.UserID.String()), payload).Err(); err != nil {
		logger.Logger.Warn("progression_publish_failed", zap.String("user_id", stats.UserID.String()), zap.Error(err))
	}
}

func (s *progressionService) InitStats(ctx context.Context, userID uuid.UUID, req dto.InitStatsRequest) (*dto.ProgressionResponse, error) {
	role, err := s.userRepo.FindRoleByName(ctx, entity.RoleAthlete)
	if err != nil {
		return nil, fmt.Errorf("load athlete role: %w", err)
	}

	user := &entity.User{ID: userID, Username: strings.TrimSpace(req.Username), RoleID: &role.ID}
	if err := s.userRepo.EnsureUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username %q is taken", apperror.ErrConflict, user.Username)
		}
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	stats := entity.NewUserStats(userID)
	created, err := s.repo.CreateStats(ctx, &stats)
	if err != nil {
		return nil, fmt.Errorf("create stats: %w", err)
	}
	if !created {
		return nil, apperror.ErrStatsAlreadyExist
	}

	logger.Logger.Info("progression_initialized", zap.String("user_id", userID.String()))
	resp := dto.NewProgressionResponse(stats, s.now(), s.loc)
	return &resp, nil
}

func (s *progressionService) GetProgression(ctx context.Context, userID uuid.UUID) (*dto.ProgressionResponse, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if stats == nil {
		return nil, apperror.ErrStatsNotInitialized
	}
	resp := dto.NewProgressionResponse(*stats, s.now(), s.loc)
	return &resp, nil
}

func (s *progressionService) AwardXP(ctx context.Context, userID uuid.UUID, req dto.AwardXPRequest) (*dto.AwardXPResponse, error) {
	sources := req.ToSources()
	if err := progression.ValidateSources(sources); err != nil {
		return nil, err
	}
	referenceType := req.ReferenceType
	if referenceType == "" {
		referenceType = ReferenceManual
	}

	var award progression.AwardResult
	c, err := s.apply(ctx, userID, s.now(), func(_ progressionRepo.ProgressionRepository, c *change) error {
		var err error
		award, err = c.award(sources, referenceType)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.AwardXPResponse{
		TotalXP:      award.TotalXP,
		OldLevel:     award.OldLevel,
		NewLevel:     award.NewLevel,
		DidLevelUp:   award.DidLevelUp,
		Rewards:      c.rewards,
		LeaguePoints: progression.LeaguePointsForXP(c.xp),
		Progression:  dto.NewProgressionResponse(c.stats, c.at, s.loc),
	}, nil
}

func streakResponse(c *change, loc *time.Location) dto.StreakResponse {
	resp := dto.StreakResponse{
		Rewards:     c.rewards,
		Progression: dto.NewProgressionResponse(c.stats, c.at, loc),
	}
	if c.streak != nil {
		resp.Transition = c.streak.Transition
		resp.DaysSince = c.streak.DaysSince
		resp.Multiplier = c.streak.Multiplier
		resp.ShieldUsed = c.streak.ShieldUsed
		resp.Milestone = c.streak.Milestone
		if c.streak.Bonus != nil {
			resp.BonusXP = c.streak.Bonus.TotalXP
		}
	}
	return resp
}

func (s *progressionService) ValidateStreak(ctx context.Context, userID uuid.UUID) (*dto.StreakResponse, error) {
	c, err := s.recordActivity(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	resp := streakResponse(c, s.loc)
	return &resp, nil
}

func (s *progressionService) recordActivity(ctx context.Context, userID uuid.UUID, at time.Time) (*change, error) {
	return s.apply(ctx, userID, at, func(_ progressionRepo.ProgressionRepository, c *change) error {
		return c.validateStreak(s.loc)
	})
}

func unlockedView(unlocks []progression.Unlock) []dto.UnlockedAchievement {
	out := make([]dto.UnlockedAchievement, 0, len(unlocks))
	for _, u := range unlocks {
		out = append(out, dto.UnlockedAchievement{
			ID:       u.Achievement.ID,
			Name:     u.Achievement.Name,
			Category: u.Achievement.Category,
			Rarity:   u.Achievement.Rarity,
			XPReward: u.Achievement.XPReward,
		})
	}
	return out
}

func (s *progressionService) loadCatalog(ctx context.Context) ([]entity.Achievement, error) {
	if s.catalog == nil {
		return nil, nil
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

func (s *progressionService) CheckAchievements(ctx context.Context, userID uuid.UUID) (*dto.AchievementCheckResponse, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.apply(ctx, userID, s.now(), func(tx progressionRepo.ProgressionRepository, c *change) error {
		unlocked, err := tx.ListUnlockedIDs(ctx, userID)
		if err != nil {
			return fmt.Errorf("load unlocked achievements: %w", err)
		}
		c.evaluate(catalog, unlocked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.AchievementCheckResponse{
		Unlocked:    unlockedView(c.unlocks),
		XPAwarded:   c.xp,
		Rewards:     c.rewards,
		Progression: dto.NewProgressionResponse(c.stats, c.at, s.loc),
	}, nil
}

// workoutSources is the base XP for a workout, scaled by the streak multiplier.
func workoutSources(payload dto.WorkoutPayload, multiplier float64) []progression.XPSource {
	var sources []progression.XPSource
	if payload.Kind == dto.WorkoutKindPractice {
		sources = append(sources, progression.XPSource{Amount: progression.XPPracticeSession, Multiplier: multiplier, Description: "Practice session"})
	} else {
		sources = append(sources, progression.XPSource{Amount: progression.XPWorkoutCompletion, Multiplier: multiplier, Description: "Workout completed"})
	}
	for i := 0; i < payload.NewExerciseCount; i++ {
		sources = append(sources, progression.XPSource{Amount: progression.XPNewExercise, Multiplier: multiplier, Description: "New exercise"})
	}
	return sources
}

func (s *progressionService) completeWorkout(ctx context.Context, userID uuid.UUID, payload dto.WorkoutPayload) (*change, error) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, userID, payload.CompletedAt, func(tx progressionRepo.ProgressionRepository, c *change) error {
		if err := c.validateStreak(s.loc); err != nil {
			return err
		}
		if payload.Kind != dto.WorkoutKindPractice {
			c.stats.TotalWorkouts++
		}
		if _, err := c.award(workoutSources(payload, c.streak.Multiplier), ReferenceWorkout); err != nil {
			return err
		}

		unlocked, err := tx.ListUnlockedIDs(ctx, userID)
		if err != nil {
			return fmt.Errorf("load unlocked achievements: %w", err)
		}
		c.evaluate(catalog, unlocked)
		return nil
	})
}

// deferrable reports whether err is a store failure that a later retry may fix.
func deferrable(err error) bool {
	var validationErr *progression.ValidationError
	switch {
	case errors.Is(err, apperror.ErrStatsNotInitialized),
		errors.As(err, &validationErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (s *progressionService) CompleteWorkout(ctx context.Context, userID uuid.UUID, req dto.CompleteWorkoutRequest) (*dto.WorkoutResponse, error) {
	payload := dto.WorkoutPayload{
		Kind:             req.Kind,
		NewExerciseCount: req.NewExerciseCount,
		CompletedAt:      s.now(),
	}
	if payload.Kind == "" {
		payload.Kind = dto.WorkoutKindWorkout
	}

	c, err := s.completeWorkout(ctx, userID, payload)
	if err != nil {
		if !deferrable(err) || s.publisher == nil {
			return nil, err
		}
		e, buildErr := events.New(events.TypeWorkoutCompleted, userID, uuid.Nil, payload)
		if buildErr != nil {
			return nil, err
		}
		if pubErr := s.publisher.Publish(ctx, e); pubErr != nil {
			return nil, errors.Join(err, pubErr)
		}
		logger.Logger.Warn("workout_deferred",
			zap.String("user_id", userID.String()),
			zap.String("event_id", e.ID.String()),
			zap.Error(err),
		)
		return &dto.WorkoutResponse{Queued: true, EventID: &e.ID}, nil
	}

	return &dto.WorkoutResponse{
		Streak:       streakResponse(c, s.loc),
		XPAwarded:    c.xp,
		Unlocked:     unlockedView(c.unlocks),
		Rewards:      c.rewards,
		LeaguePoints: progression.LeaguePointsForXP(c.xp),
		Progression:  dto.NewProgressionResponse(c.stats, c.at, s.loc),
	}, nil
}

func (s *progressionService) HandleWorkoutCompleted(ctx context.Context, e events.Event) error {
	var payload dto.WorkoutPayload
	if err := e.Decode(&payload); err != nil {
		logger.Logger.Warn("workout_event_invalid", zap.String("event_id", e.ID.String()), zap.Error(err))
		return nil
	}
	if payload.CompletedAt.IsZero() {
		payload.CompletedAt = e.OccurredAt
	}

	_, err := s.completeWorkout(ctx, e.UserID, payload)
	return ackable(e, err)
}

func (s *progressionService) HandleActivity(ctx context.Context, e events.Event) error {
	_, err := s.recordActivity(ctx, e.UserID, e.OccurredAt)
	return ackable(e, err)
}

// ackable drops errors that no retry can fix so the dispatcher does not dead letter them.
func ackable(e events.Event, err error) error {
	if err == nil || deferrable(err) {
		return err
	}
	logger.Logger.Info("event_acknowledged_without_effect",
		zap.String("event_id", e.ID.String()),
		zap.String("user_id", e.UserID.String()),
		zap.Error(err),
	)
	return nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (s *progressionService) RemindAtRisk(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	now := s.now()
	today := startOfDay(now, s.loc)

	sent := 0
	cursor := uuid.Nil
	for {
		page, err := s.repo.ListActiveStreaks(ctx, cursor, reminderPageSize)
		if err != nil {
			return sent, fmt.Errorf("list active streaks: %w", err)
		}
		for i := range page {
			stats := page[i]
			risk := progression.AssessStreakRisk(&stats, now, s.loc)
			if !risk.AtRisk {
				continue
			}

			already, err := s.notifier.SentSince(ctx, stats.UserID, entity.NotificationStreakAtRisk, today)
			if err != nil {
				return sent, err
			}
			if already {
				continue
			}

			msg := fmt.Sprintf("Your %d day streak is at risk. Work out today or a shield will be used.", risk.StreakCount)
			if risk.Unprotected {
				msg = fmt.Sprintf("Your %d day streak ends tonight. Work out today to keep it!", risk.StreakCount)
			}
			if err := s.notifier.CreateNotification(ctx, &entity.Notification{
				UserID:     stats.UserID,
				EntityID:   stats.UserID,
				EntityType: "progression",
				Type:       entity.NotificationStreakAtRisk,
				Message:    msg,
			}); err != nil {
				return sent, err
			}
			sent++
		}
		if len(page) < reminderPageSize {
			break
		}
		cursor = page[len(page)-1].UserID
	}

	logger.Logger.Info("streak_reminders_sent", zap.Int("count", sent))
	return sent, nil
}

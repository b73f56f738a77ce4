package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/modules/league/dto"
	leagueRepo "anoa.com/fitquest/internal/modules/league/repository"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/pkg/apperror"
	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

const (
	rolloverBatch     = 50
	settleConcurrency = 4
)

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type LeagueService interface {
	// Join enrolls the user in an open cohort of tier (bronze when empty). A user already
	// in an open cohort gets that membership back.
	Join(ctx context.Context, userID uuid.UUID, req dto.JoinLeagueRequest) (*dto.LeagueStateResponse, error)
	GetState(ctx context.Context, userID uuid.UUID) (*dto.LeagueStateResponse, error)
	RecomputeStandings(ctx context.Context, cohortID uuid.UUID) (*dto.RecomputeResponse, error)
	// AddPoints credits the user's open membership. Users outside any league are ignored.
	AddPoints(ctx context.Context, userID uuid.UUID, points int) error
	// Rollover closes expired cohorts and moves their members into next season's tiers.
	Rollover(ctx context.Context) (int, error)

	HandleLeagueChanged(ctx context.Context, e events.Event) error
}

type leagueService struct {
	repo      leagueRepo.LeagueRepository
	notifier  Notifier
	publisher events.Publisher
	settings  progression.LeagueSettings
	loc       *time.Location
	now       func() time.Time
}

func NewLeagueService(
	repo leagueRepo.LeagueRepository,
	notifier Notifier,
	publisher events.Publisher,
	settings progression.LeagueSettings,
	loc *time.Location,
) LeagueService {
	if loc == nil {
		loc = time.UTC
	}
	return &leagueService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		settings:  settings,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *leagueService) Join(ctx context.Context, userID uuid.UUID, req dto.JoinLeagueRequest) (*dto.LeagueStateResponse, error) {
	tier := req.Tier
	if tier == "" {
		tier = progression.TierBronze
	}
	if err := progression.ValidateTier(tier); err != nil {
		return nil, err
	}

	now := s.now()
	member, cohort, err := s.repo.FindActiveMembership(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	if member == nil {
		var created bool
		if cohort, created, err = s.enroll(ctx, userID, tier, now); err != nil {
			return nil, err
		}
		if created {
			logger.Logger.Info("league_joined",
				zap.String("user_id", userID.String()),
				zap.String("cohort_id", cohort.ID.String()),
				zap.String("tier", cohort.Tier),
			)
		}
	}

	return s.state(ctx, *cohort, userID)
}

// enroll places the user in the fullest open cohort of tier, opening a new one when all
// are full. The chosen cohort is locked and recounted so concurrent joins cannot overfill it.
// A user who already holds an open membership keeps it and created is false.
func (s *leagueService) enroll(ctx context.Context, userID uuid.UUID, tier string, now time.Time) (joined *entity.LeagueCohort, created bool, err error) {
	err = s.repo.Transaction(ctx, func(tx leagueRepo.LeagueRepository) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		member, current, err := tx.FindActiveMembership(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("find membership: %w", err)
		}
		if member != nil {
			joined = current
			return nil
		}

		candidates, err := tx.FindOpenCohorts(ctx, tier, now)
		if err != nil {
			return fmt.Errorf("find cohorts: %w", err)
		}

		if picked, ok := progression.SelectCohort(candidates, tier, now); ok {
			locked, err := tx.LockCohort(ctx, picked.ID)
			if err != nil {
				return fmt.Errorf("lock cohort: %w", err)
			}
			count, err := tx.CountMembers(ctx, locked.ID)
			if err != nil {
				return fmt.Errorf("count members: %w", err)
			}
			if locked.IsOpen(now) && int(count) < locked.MaxMembers {
				joined = locked
			}
		}

		if joined == nil {
			cohort, err := progression.NewCohort(tier, now, s.loc, s.settings)
			if err != nil {
				return err
			}
			if err := tx.CreateCohort(ctx, &cohort); err != nil {
				return fmt.Errorf("create cohort: %w", err)
			}
			joined = &cohort
		}

		if err := tx.CreateMember(ctx, &entity.LeagueMember{
			CohortID: joined.ID,
			UserID:   userID,
			JoinedAt: now,
		}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.ErrConflict
			}
			return fmt.Errorf("create member: %w", err)
		}

		created = true
		_, err = s.rank(ctx, tx, joined.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return joined, created, nil
}

// rank recomputes positions for cohortID and writes the rows that moved.
func (s *leagueService) rank(ctx context.Context, tx leagueRepo.LeagueRepository, cohortID uuid.UUID) ([]progression.Standing, error) {
	members, err := tx.ListMembers(ctx, cohortID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	standings := progression.RankMembers(members, s.settings)
	changed := progression.ChangedMembers(standings)
	if len(changed) > 0 {
		if err := tx.UpdatePositions(ctx, changed); err != nil {
			return nil, fmt.Errorf("update positions: %w", err)
		}
		metrics.LeagueRecomputations.WithLabelValues("changed").Inc()
	} else {
		metrics.LeagueRecomputations.WithLabelValues("unchanged").Inc()
	}
	return standings, nil
}

func (s *leagueService) state(ctx context.Context, cohort entity.LeagueCohort, userID uuid.UUID) (*dto.LeagueStateResponse, error) {
	members, err := s.repo.ListMembers(ctx, cohort.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return dto.NewLeagueStateResponse(cohort, progression.RankMembers(members, s.settings), userID), nil
}

func (s *leagueService) GetState(ctx context.Context, userID uuid.UUID) (*dto.LeagueStateResponse, error) {
	member, cohort, err := s.repo.FindActiveMembership(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	if member == nil {
		return nil, apperror.ErrNotLeagueMember
	}
	return s.state(ctx, *cohort, userID)
}

func (s *leagueService) RecomputeStandings(ctx context.Context, cohortID uuid.UUID) (*dto.RecomputeResponse, error) {
	var standings []progression.Standing
	err := s.repo.Transaction(ctx, func(tx leagueRepo.LeagueRepository) error {
		if _, err := tx.LockCohort(ctx, cohortID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return fmt.Errorf("lock cohort: %w", err)
		}
		var err error
		standings, err = s.rank(ctx, tx, cohortID)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated := len(progression.ChangedMembers(standings))
	logger.Logger.Debug("league_standings_recomputed",
		zap.String("cohort_id", cohortID.String()),
		zap.Int("updated", updated),
	)
	return &dto.RecomputeResponse{
		CohortID:  cohortID,
		Updated:   updated,
		Standings: dto.NewStandingResponses(standings, uuid.Nil),
	}, nil
}

func (s *leagueService) AddPoints(ctx context.Context, userID uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	member, _, err := s.repo.FindActiveMembership(ctx, userID, s.now())
	if err != nil {
		return fmt.Errorf("find membership: %w", err)
	}
	if member == nil {
		return nil
	}
	if err := s.repo.AddPoints(ctx, member.ID, points); err != nil {
		return fmt.Errorf("add points: %w", err)
	}

	if s.publisher != nil {
		e, err := events.New(events.TypeLeagueChanged, userID, member.CohortID, nil)
		if err == nil {
			if err = s.publisher.Publish(ctx, e); err == nil {
				return nil
			}
		}
		logger.Logger.Warn("league_event_publish_failed",
			zap.String("cohort_id", member.CohortID.String()),
			zap.Error(err),
		)
	}

	// no feed to defer to, rank inline
	_, err = s.RecomputeStandings(ctx, member.CohortID)
	return err
}

func (s *leagueService) HandleLeagueChanged(ctx context.Context, e events.Event) error {
	_, err := s.RecomputeStandings(ctx, e.CohortID)
	if errors.Is(err, apperror.ErrNotFound) {
		logger.Logger.Info("event_acknowledged_without_effect",
			zap.String("event_id", e.ID.String()),
			zap.String("cohort_id", e.CohortID.String()),
		)
		return nil
	}
	return err
}

func (s *leagueService) Rollover(ctx context.Context) (int, error) {
	now := s.now()
	closed := 0

	// Closing is sequential; settling closed cohorts runs in the background, bounded by sem.
	sem := semaphore.NewWeighted(settleConcurrency)
	wait := func() {
		_ = sem.Acquire(context.WithoutCancel(ctx), settleConcurrency)
	}

	for {
		cohorts, err := s.repo.FindExpiredCohorts(ctx, now, rolloverBatch)
		if err != nil {
			wait()
			return closed, fmt.Errorf("find expired cohorts: %w", err)
		}
		for _, cohort := range cohorts {
			cohort := cohort
			outcomes, err := s.closeCohort(ctx, cohort.ID, now)
			if err != nil {
				wait()
				return closed, err
			}
			closed++

			if err := sem.Acquire(ctx, 1); err != nil {
				wait()
				return closed, err
			}
			go func() {
				defer sem.Release(1)
				s.settle(ctx, cohort, outcomes, now)
			}()
		}
		if len(cohorts) < rolloverBatch {
			break
		}
	}
	wait()

	logger.Logger.Info("league_rollover_finished", zap.Int("closed", closed))
	return closed, nil
}

func (s *leagueService) closeCohort(ctx context.Context, cohortID uuid.UUID, now time.Time) ([]progression.SeasonOutcome, error) {
	var outcomes []progression.SeasonOutcome
	err := s.repo.Transaction(ctx, func(tx leagueRepo.LeagueRepository) error {
		cohort, err := tx.LockCohort(ctx, cohortID)
		if err != nil {
			return fmt.Errorf("lock cohort: %w", err)
		}
		if cohort.ClosedAt != nil {
			return nil
		}
		standings, err := s.rank(ctx, tx, cohortID)
		if err != nil {
			return err
		}
		outcomes = progression.SeasonOutcomes(cohort.Tier, standings)
		if err := tx.CloseCohort(ctx, cohortID, now); err != nil {
			return fmt.Errorf("close cohort: %w", err)
		}
		return nil
	})
	return outcomes, err
}

// settle notifies each member of their result and enrolls them for the next season.
// Failures are logged per member.
func (s *leagueService) settle(ctx context.Context, cohort entity.LeagueCohort, outcomes []progression.SeasonOutcome, now time.Time) {
	for _, out := range outcomes {
		userID := out.Member.UserID
		if s.notifier != nil {
			if err := s.notifier.CreateNotification(ctx, &entity.Notification{
				UserID:     userID,
				EntityID:   cohort.ID,
				EntityType: "league",
				Type:       entity.NotificationLeagueResult,
				Message:    seasonMessage(out),
			}); err != nil {
				logger.Logger.Warn("notification_create_failed",
					zap.String("user_id", userID.String()),
					zap.String("type", entity.NotificationLeagueResult),
					zap.Error(err),
				)
			}
		}

		next, created, err := s.enroll(ctx, userID, out.ToTier, now)
		switch {
		case err != nil:
			logger.Logger.Warn("league_reenroll_failed",
				zap.String("user_id", userID.String()),
				zap.String("tier", out.ToTier),
				zap.Error(err),
			)
		case !created:
			logger.Logger.Info("league_reenroll_skipped",
				zap.String("user_id", userID.String()),
				zap.String("cohort_id", next.ID.String()),
			)
		}
	}

	logger.Logger.Info("league_cohort_closed",
		zap.String("cohort_id", cohort.ID.String()),
		zap.String("tier", cohort.Tier),
		zap.Int("members", len(outcomes)),
	)
}

func seasonMessage(out progression.SeasonOutcome) string {
	tier := strings.ToUpper(out.ToTier[:1]) + out.ToTier[1:]
	switch out.Result {
	case progression.SeasonPromoted:
		return fmt.Sprintf("You finished #%d and were promoted to the %s league!", out.Member.Position, tier)
	case progression.SeasonDemoted:
		return fmt.Sprintf("You finished #%d and dropped to the %s league. Bounce back this week!", out.Member.Position, tier)
	default:
		return fmt.Sprintf("You finished #%d and stay in the %s league.", out.Member.Position, tier)
	}
}

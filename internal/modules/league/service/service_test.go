package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/modules/league/dto"
	"anoa.com/fitquest/internal/modules/league/mock"
	leagueRepo "anoa.com/fitquest/internal/modules/league/repository"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

// a Wednesday; the league week started Sunday 2026-06-07
var fixedNow = time.Date(2026, 6, 10, 18, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	created []*entity.Notification
}

func (n *recordingNotifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, notification)
	return nil
}

type recordingPublisher struct {
	published []events.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

type fixture struct {
	repo      *mock.MockLeagueRepository
	notifier  *recordingNotifier
	publisher *recordingPublisher
	svc       *leagueService
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:      mock.NewMockLeagueRepository(ctrl),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	svc := NewLeagueService(f.repo, f.notifier, f.publisher, progression.DefaultLeagueSettings(), time.UTC)
	f.svc = svc.(*leagueService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) expectTx() *gomock.Call {
	return f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(leagueRepo.LeagueRepository) error) error {
			return fn(f.repo)
		})
}

func openCohort(tier string) entity.LeagueCohort {
	start := time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC)
	return entity.LeagueCohort{ID: uuid.New(), Tier: tier, StartDate: start, EndDate: start.AddDate(0, 0, 7), MaxMembers: 30}
}

func member(cohortID uuid.UUID, points, position int, joined time.Time) entity.LeagueMember {
	userID := uuid.New()
	return entity.LeagueMember{
		ID:       uuid.New(),
		CohortID: cohortID,
		UserID:   userID,
		User:     &entity.User{ID: userID, Username: "user-" + userID.String()[:6]},
		Points:   points,
		Position: position,
		JoinedAt: joined,
	}
}

func TestJoinOpensCohortWhenNoneAvailable(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	var (
		created entity.LeagueCohort
		joined  entity.LeagueMember
	)
	f.repo.EXPECT().FindActiveMembership(gomock.Any(), userID, fixedNow).Return(nil, nil, nil).Times(2)
	f.expectTx()
	f.repo.EXPECT().LockUser(gomock.Any(), userID).Return(nil)
	f.repo.EXPECT().FindOpenCohorts(gomock.Any(), progression.TierBronze, fixedNow).Return(nil, nil)
	f.repo.EXPECT().CreateCohort(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *entity.LeagueCohort) error {
		c.ID = uuid.New()
		created = *c
		return nil
	})
	f.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *entity.LeagueMember) error {
		m.ID = uuid.New()
		joined = *m
		return nil
	})
	f.repo.EXPECT().ListMembers(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, uuid.UUID) ([]entity.LeagueMember, error) {
		return []entity.LeagueMember{joined}, nil
	}).Times(2)
	f.repo.EXPECT().UpdatePositions(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, members []entity.LeagueMember) error {
		require.Len(t, members, 1)
		assert.Equal(t, 1, members[0].Position)
		return nil
	})

	state, err := f.svc.Join(context.Background(), userID, dto.JoinLeagueRequest{})
	require.NoError(t, err)

	assert.Equal(t, progression.TierBronze, created.Tier)
	assert.Equal(t, time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC), created.StartDate)
	assert.Equal(t, time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC), created.EndDate)
	assert.Equal(t, 30, created.MaxMembers)
	assert.Equal(t, created.ID, joined.CohortID)
	assert.Equal(t, fixedNow, joined.JoinedAt)

	assert.Equal(t, created.ID, state.CurrentCohort.ID)
	assert.Equal(t, 1, state.UserRank)
	assert.True(t, state.IsPromotionZone)
	require.Len(t, state.Members, 1)
	assert.True(t, state.Members[0].IsCurrentUser)
}

func TestJoinOpensNewCohortWhenPickedOneFilledUp(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	full := openCohort(progression.TierSilver)

	f.repo.EXPECT().FindActiveMembership(gomock.Any(), userID, fixedNow).Return(nil, nil, nil).Times(2)
	f.expectTx()
	f.repo.EXPECT().LockUser(gomock.Any(), userID).Return(nil)
	f.repo.EXPECT().FindOpenCohorts(gomock.Any(), progression.TierSilver, fixedNow).
		Return([]progression.CohortOccupancy{{Cohort: full, Members: 29}}, nil)
	f.repo.EXPECT().LockCohort(gomock.Any(), full.ID).Return(&full, nil)
	// another join took the last seat between the scan and the lock
	f.repo.EXPECT().CountMembers(gomock.Any(), full.ID).Return(int64(30), nil)
	f.repo.EXPECT().CreateCohort(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *entity.LeagueCohort) error {
		c.ID = uuid.New()
		return nil
	})
	f.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *entity.LeagueMember) error {
		assert.NotEqual(t, full.ID, m.CohortID)
		return nil
	})
	f.repo.EXPECT().ListMembers(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	state, err := f.svc.Join(context.Background(), userID, dto.JoinLeagueRequest{Tier: progression.TierSilver})
	require.NoError(t, err)
	assert.NotEqual(t, full.ID, state.CurrentCohort.ID)
	assert.Equal(t, progression.TierSilver, state.CurrentCohort.Tier)
}

func TestJoinUsesOpenCohortWithRoom(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	roomy := openCohort(progression.TierBronze)

	f.repo.EXPECT().FindActiveMembership(gomock.Any(), userID, fixedNow).Return(nil, nil, nil).Times(2)
	f.expectTx()
	f.repo.EXPECT().LockUser(gomock.Any(), userID).Return(nil)
	f.repo.EXPECT().FindOpenCohorts(gomock.Any(), progression.TierBronze, fixedNow).
		Return([]progression.CohortOccupancy{{Cohort: roomy, Members: 12}}, nil)
	f.repo.EXPECT().LockCohort(gomock.Any(), roomy.ID).Return(&roomy, nil)
	f.repo.EXPECT().CountMembers(gomock.Any(), roomy.ID).Return(int64(12), nil)
	f.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *entity.LeagueMember) error {
		assert.Equal(t, roomy.ID, m.CohortID)
		return nil
	})
	f.repo.EXPECT().ListMembers(gomock.Any(), roomy.ID).Return(nil, nil).Times(2)

	state, err := f.svc.Join(context.Background(), userID, dto.JoinLeagueRequest{})
	require.NoError(t, err)
	assert.Equal(t, roomy.ID, state.CurrentCohort.ID)
}

func TestJoinReturnsExistingMembership(t *testing.T) {
	f := newFixture(t)
	cohort := openCohort(progression.TierGold)
	m := member(cohort.ID, 40, 1, fixedNow.Add(-time.Hour))

	f.repo.EXPECT().FindActiveMembership(gomock.Any(), m.UserID, fixedNow).Return(&m, &cohort, nil)
	f.repo.EXPECT().ListMembers(gomock.Any(), cohort.ID).Return([]entity.LeagueMember{m}, nil)

	state, err := f.svc.Join(context.Background(), m.UserID, dto.JoinLeagueRequest{Tier: progression.TierBronze})
	require.NoError(t, err)
	assert.Equal(t, progression.TierGold, state.CurrentCohort.Tier)
	assert.Equal(t, 1, state.UserRank)
}

func TestJoinKeepsMembershipCreatedConcurrently(t *testing.T) {
	f := newFixture(t)
	cohort := openCohort(progression.TierBronze)
	m := member(cohort.ID, 0, 1, fixedNow)

	gomock.InOrder(
		f.repo.EXPECT().FindActiveMembership(gomock.Any(), m.UserID, fixedNow).Return(nil, nil, nil),
		f.repo.EXPECT().FindActiveMembership(gomock.Any(), m.UserID, fixedNow).Return(&m, &cohort, nil),
	)
	f.expectTx()
	f.repo.EXPECT().LockUser(gomock.Any(), m.UserID).Return(nil)
	f.repo.EXPECT().ListMembers(gomock.Any(), cohort.ID).Return([]entity.LeagueMember{m}, nil)

	state, err := f.svc.Join(context.Background(), m.UserID, dto.JoinLeagueRequest{Tier: progression.TierGold})
	require.NoError(t, err)
	assert.Equal(t, cohort.ID, state.CurrentCohort.ID)
}

func TestJoinRejectsUnknownTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Join(context.Background(), uuid.New(), dto.JoinLeagueRequest{Tier: "mithril"})
	assert.ErrorIs(t, err, progression.ErrInvalidTier)
}

func TestGetStateRequiresMembership(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.repo.EXPECT().FindActiveMembership(gomock.Any(), userID, fixedNow).Return(nil, nil, nil)

	_, err := f.svc.GetState(context.Background(), userID)
	assert.ErrorIs(t, err, apperror.ErrNotLeagueMember)
}

func TestRecomputeStandingsWritesOnlyMovedRows(t *testing.T) {
	f := newFixture(t)
	cohort := openCohort(progression.TierBronze)
	joined := fixedNow.Add(-48 * time.Hour)
	leader := member(cohort.ID, 100, 2, joined)
	second := member(cohort.ID, 50, 1, joined)
	third := member(cohort.ID, 10, 3, joined)

	f.expectTx()
	f.repo.EXPECT().LockCohort(gomock.Any(), cohort.ID).Return(&cohort, nil)
	f.repo.EXPECT().ListMembers(gomock.Any(), cohort.ID).Return([]entity.LeagueMember{second, leader, third}, nil)

	var written []entity.LeagueMember
	f.repo.EXPECT().UpdatePositions(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, members []entity.LeagueMember) error {
		written = members
		return nil
	})

	resp, err := f.svc.RecomputeStandings(context.Background(), cohort.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Updated)
	require.Len(t, written, 2)
	assert.Equal(t, leader.ID, written[0].ID)
	assert.Equal(t, 1, written[0].Position)
	assert.Equal(t, second.ID, written[1].ID)
	assert.Equal(t, 2, written[1].Position)

	require.Len(t, resp.Standings, 3)
	assert.Equal(t, third.UserID, resp.Standings[2].UserID)
	assert.Equal(t, 3, resp.Standings[2].Position)
}

func TestRecomputeStandingsUnknownCohort(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.expectTx()
	f.repo.EXPECT().LockCohort(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.RecomputeStandings(context.Background(), id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddPoints(t *testing.T) {
	t.Run("ignores users outside any league", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		f.repo.EXPECT().FindActiveMembership(gomock.Any(), userID, fixedNow).Return(nil, nil, nil)

		require.NoError(t, f.svc.AddPoints(context.Background(), userID, 60))
		assert.Empty(t, f.publisher.published)
	})

	t.Run("credits the member and announces the cohort change", func(t *testing.T) {
		f := newFixture(t)
		cohort := openCohort(progression.TierBronze)
		m := member(cohort.ID, 10, 1, fixedNow)
		f.repo.EXPECT().FindActiveMembership(gomock.Any(), m.UserID, fixedNow).Return(&m, &cohort, nil)
		f.repo.EXPECT().AddPoints(gomock.Any(), m.ID, 63).Return(nil)

		require.NoError(t, f.svc.AddPoints(context.Background(), m.UserID, 63))
		require.Len(t, f.publisher.published, 1)
		assert.Equal(t, events.TypeLeagueChanged, f.publisher.published[0].Type)
		assert.Equal(t, cohort.ID, f.publisher.published[0].CohortID)
	})

	t.Run("ranks inline when the feed is down", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.err = events.ErrBusUnavailable
		cohort := openCohort(progression.TierBronze)
		m := member(cohort.ID, 10, 1, fixedNow)
		f.repo.EXPECT().FindActiveMembership(gomock.Any(), m.UserID, fixedNow).Return(&m, &cohort, nil)
		f.repo.EXPECT().AddPoints(gomock.Any(), m.ID, 5).Return(nil)
		f.expectTx()
		f.repo.EXPECT().LockCohort(gomock.Any(), cohort.ID).Return(&cohort, nil)
		f.repo.EXPECT().ListMembers(gomock.Any(), cohort.ID).Return([]entity.LeagueMember{m}, nil)

		require.NoError(t, f.svc.AddPoints(context.Background(), m.UserID, 5))
	})

	t.Run("non positive points are a no-op", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.AddPoints(context.Background(), uuid.New(), 0))
	})
}

func TestHandleLeagueChangedAcksMissingCohort(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.expectTx()
	f.repo.EXPECT().LockCohort(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

	e, err := events.New(events.TypeLeagueChanged, uuid.New(), id, nil)
	require.NoError(t, err)
	assert.NoError(t, f.svc.HandleLeagueChanged(context.Background(), e))
}

func TestHandleLeagueChangedRetriesStoreFailure(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.expectTx()
	f.repo.EXPECT().LockCohort(gomock.Any(), id).Return(nil, errors.New("connection reset"))

	e, err := events.New(events.TypeLeagueChanged, uuid.New(), id, nil)
	require.NoError(t, err)
	assert.Error(t, f.svc.HandleLeagueChanged(context.Background(), e))
}

func TestRolloverPromotesAndReenrolls(t *testing.T) {
	f := newFixture(t)
	expired := openCohort(progression.TierSilver)
	expired.StartDate = expired.StartDate.AddDate(0, 0, -7)
	expired.EndDate = expired.EndDate.AddDate(0, 0, -7)
	joined := expired.StartDate.Add(time.Hour)
	first := member(expired.ID, 300, 1, joined)
	second := member(expired.ID, 120, 2, joined)

	f.repo.EXPECT().FindExpiredCohorts(gomock.Any(), fixedNow, rolloverBatch).Return([]entity.LeagueCohort{expired}, nil)
	f.expectTx().Times(3)
	f.repo.EXPECT().LockCohort(gomock.Any(), expired.ID).Return(&expired, nil)
	f.repo.EXPECT().CloseCohort(gomock.Any(), expired.ID, fixedNow).Return(nil)
	f.repo.EXPECT().LockUser(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.repo.EXPECT().FindActiveMembership(gomock.Any(), gomock.Any(), fixedNow).Return(nil, nil, nil).Times(2)

	next := openCohort(progression.TierGold)
	var enrolled []entity.LeagueMember
	f.repo.EXPECT().FindOpenCohorts(gomock.Any(), progression.TierGold, fixedNow).
		DoAndReturn(func(context.Context, string, time.Time) ([]progression.CohortOccupancy, error) {
			if len(enrolled) == 0 {
				return nil, nil
			}
			return []progression.CohortOccupancy{{Cohort: next, Members: len(enrolled)}}, nil
		}).Times(2)
	f.repo.EXPECT().CreateCohort(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *entity.LeagueCohort) error {
		assert.Equal(t, progression.TierGold, c.Tier)
		c.ID = next.ID
		return nil
	})
	f.repo.EXPECT().LockCohort(gomock.Any(), next.ID).Return(&next, nil)
	f.repo.EXPECT().CountMembers(gomock.Any(), next.ID).Return(int64(1), nil)
	f.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *entity.LeagueMember) error {
		enrolled = append(enrolled, *m)
		return nil
	}).Times(2)
	f.repo.EXPECT().ListMembers(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cohortID uuid.UUID) ([]entity.LeagueMember, error) {
		if cohortID == expired.ID {
			return []entity.LeagueMember{first, second}, nil
		}
		return nil, nil
	}).Times(3)

	closed, err := f.svc.Rollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	require.Len(t, enrolled, 2)
	assert.Equal(t, first.UserID, enrolled[0].UserID)
	assert.Equal(t, next.ID, enrolled[1].CohortID)

	require.Len(t, f.notifier.created, 2)
	for _, n := range f.notifier.created {
		assert.Equal(t, entity.NotificationLeagueResult, n.Type)
		assert.Equal(t, expired.ID, n.EntityID)
		assert.Contains(t, n.Message, "promoted to the Gold league")
	}
}

func TestRolloverSkipsUserAlreadyInNewSeason(t *testing.T) {
	f := newFixture(t)
	expired := openCohort(progression.TierSilver)
	expired.StartDate = expired.StartDate.AddDate(0, 0, -7)
	expired.EndDate = expired.EndDate.AddDate(0, 0, -7)
	early := member(expired.ID, 200, 1, expired.StartDate.Add(time.Hour))

	// joined this week's bronze league before the rollover job ran
	current := openCohort(progression.TierBronze)
	existing := member(current.ID, 0, 1, fixedNow.Add(-time.Hour))
	existing.UserID = early.UserID

	f.repo.EXPECT().FindExpiredCohorts(gomock.Any(), fixedNow, rolloverBatch).Return([]entity.LeagueCohort{expired}, nil)
	f.expectTx().Times(2)
	f.repo.EXPECT().LockCohort(gomock.Any(), expired.ID).Return(&expired, nil)
	f.repo.EXPECT().ListMembers(gomock.Any(), expired.ID).Return([]entity.LeagueMember{early}, nil)
	f.repo.EXPECT().CloseCohort(gomock.Any(), expired.ID, fixedNow).Return(nil)
	f.repo.EXPECT().LockUser(gomock.Any(), early.UserID).Return(nil)
	f.repo.EXPECT().FindActiveMembership(gomock.Any(), early.UserID, fixedNow).Return(&existing, &current, nil)
	f.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).Times(0)
	f.repo.EXPECT().CreateCohort(gomock.Any(), gomock.Any()).Times(0)

	closed, err := f.svc.Rollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	require.Len(t, f.notifier.created, 1)
}

func TestSeasonMessage(t *testing.T) {
	m := entity.LeagueMember{Position: 27}
	tests := []struct {
		name string
		out  progression.SeasonOutcome
		want string
	}{
		{"promoted", progression.SeasonOutcome{Member: entity.LeagueMember{Position: 2}, ToTier: progression.TierDiamond, Result: progression.SeasonPromoted}, "You finished #2 and were promoted to the Diamond league!"},
		{"demoted", progression.SeasonOutcome{Member: m, ToTier: progression.TierBronze, Result: progression.SeasonDemoted}, "You finished #27 and dropped to the Bronze league. Bounce back this week!"},
		{"stayed", progression.SeasonOutcome{Member: entity.LeagueMember{Position: 12}, ToTier: progression.TierGold, Result: progression.SeasonStayed}, "You finished #12 and stay in the Gold league."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seasonMessage(tt.out))
		})
	}
}

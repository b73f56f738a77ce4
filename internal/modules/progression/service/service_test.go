package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/modules/progression/dto"
	"anoa.com/fitquest/internal/modules/progression/mock"
	progressionRepo "anoa.com/fitquest/internal/modules/progression/repository"
	userMock "anoa.com/fitquest/internal/modules/user/mock"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 10, 18, 30, 0, 0, time.UTC)

type staticCatalog []entity.Achievement

func (c staticCatalog) Catalog(context.Context) ([]entity.Achievement, error) { return c, nil }

type recordingLeague struct {
	points map[uuid.UUID]int
}

func (l *recordingLeague) AddPoints(_ context.Context, userID uuid.UUID, points int) error {
	if l.points == nil {
		l.points = map[uuid.UUID]int{}
	}
	l.points[userID] += points
	return nil
}

type recordingNotifier struct {
	created []*entity.Notification
	sent    map[uuid.UUID]bool
}

func (n *recordingNotifier) CreateNotification(_ context.Context, notification *entity.Notification) error {
	n.created = append(n.created, notification)
	return nil
}

func (n *recordingNotifier) SentSince(_ context.Context, userID uuid.UUID, _ string, _ time.Time) (bool, error) {
	return n.sent[userID], nil
}

func (n *recordingNotifier) types() []string {
	out := make([]string, 0, len(n.created))
	for _, c := range n.created {
		out = append(out, c.Type)
	}
	return out
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
	repo      *mock.MockProgressionRepository
	users     *userMock.MockUserRepository
	league    *recordingLeague
	notifier  *recordingNotifier
	publisher *recordingPublisher
	svc       *progressionService
}

func newFixture(t *testing.T, catalog []entity.Achievement) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:      mock.NewMockProgressionRepository(ctrl),
		users:     userMock.NewMockUserRepository(ctrl),
		league:    &recordingLeague{},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	svc := NewProgressionService(f.repo, f.users, staticCatalog(catalog), f.league, f.notifier, f.publisher, nil, time.UTC)
	f.svc = svc.(*progressionService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

// expectTx runs the transaction body against the same mock.
func (f *fixture) expectTx() {
	f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(progressionRepo.ProgressionRepository) error) error {
			return fn(f.repo)
		})
}

type persisted struct {
	stats   entity.UserStats
	logs    []entity.XPLog
	unlocks []entity.UserAchievement
}

func (f *fixture) expectWrites(p *persisted) {
	f.repo.EXPECT().SaveStats(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *entity.UserStats) error {
		p.stats = *s
		return nil
	})
	f.repo.EXPECT().CreateXPLogs(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, logs []entity.XPLog) error {
		p.logs = logs
		return nil
	})
}

func intPtr(v int) *int { return &v }

func yesterday() *time.Time {
	t := fixedNow.AddDate(0, 0, -1)
	return &t
}

func TestCompleteWorkoutScenario(t *testing.T) {
	spark := entity.Achievement{ID: uuid.New(), Name: "Spark", Category: entity.CategoryConsistency, Requirements: entity.AchievementRequirements{StreakDays: intPtr(3)}, XPReward: 50, Rarity: entity.RarityCommon}
	weekly := entity.Achievement{ID: uuid.New(), Name: "Week Warrior", Category: entity.CategoryConsistency, Requirements: entity.AchievementRequirements{StreakDays: intPtr(7)}, XPReward: 100, Rarity: entity.RarityRare}

	f := newFixture(t, []entity.Achievement{spark, weekly})
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, Level: 1, StreakCount: 2, LongestStreak: 2, LastActivityDate: yesterday()}

	var p persisted
	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)
	f.repo.EXPECT().ListUnlockedIDs(gomock.Any(), userID).Return(nil, nil)
	f.expectWrites(&p)
	f.repo.EXPECT().InsertUserAchievements(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, records []entity.UserAchievement) (int64, error) {
		p.unlocks = records
		return int64(len(records)), nil
	})

	resp, err := f.svc.CompleteWorkout(context.Background(), userID, dto.CompleteWorkoutRequest{})
	require.NoError(t, err)
	require.False(t, resp.Queued)

	assert.Equal(t, progression.StreakExtended, resp.Streak.Transition)
	assert.Equal(t, 1.25, resp.Streak.Multiplier)
	assert.Equal(t, 112.5, resp.XPAwarded)
	require.Len(t, resp.Unlocked, 1)
	assert.Equal(t, "Spark", resp.Unlocked[0].Name)
	assert.Equal(t, 113, resp.LeaguePoints)

	assert.Equal(t, 112.5, p.stats.CurrentXP)
	assert.Equal(t, 2, p.stats.Level)
	assert.Equal(t, 3, p.stats.StreakCount)
	assert.Equal(t, 3, p.stats.LongestStreak)
	assert.Equal(t, 1, p.stats.TotalWorkouts)
	assert.Equal(t, fixedNow, *p.stats.LastActivityDate)

	require.Len(t, p.logs, 2)
	assert.Equal(t, 62.5, p.logs[0].Amount)
	assert.Equal(t, ReferenceWorkout, p.logs[0].ReferenceType)
	assert.Equal(t, 50.0, p.logs[1].Amount)
	assert.Equal(t, ReferenceAchievement, p.logs[1].ReferenceType)

	require.Len(t, p.unlocks, 1)
	assert.Equal(t, spark.ID, p.unlocks[0].AchievementID)
	assert.Equal(t, 100, p.unlocks[0].Progress)

	assert.Equal(t, 113, f.league.points[userID])
	assert.ElementsMatch(t, []string{entity.NotificationAchievement, entity.NotificationLevelUp}, f.notifier.types())
}

func TestCompleteWorkoutPracticeDoesNotCountAsWorkout(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, Level: 1}

	var p persisted
	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)
	f.repo.EXPECT().ListUnlockedIDs(gomock.Any(), userID).Return(nil, nil)
	f.expectWrites(&p)

	resp, err := f.svc.CompleteWorkout(context.Background(), userID, dto.CompleteWorkoutRequest{Kind: dto.WorkoutKindPractice, NewExerciseCount: 2})
	require.NoError(t, err)

	assert.Equal(t, progression.StreakStarted, resp.Streak.Transition)
	assert.Equal(t, 225.0, resp.XPAwarded)
	assert.Equal(t, 0, p.stats.TotalWorkouts)
	assert.Equal(t, 1, p.stats.StreakCount)
}

func TestCompleteWorkoutQueuesOnStoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()

	f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	resp, err := f.svc.CompleteWorkout(context.Background(), userID, dto.CompleteWorkoutRequest{NewExerciseCount: 1})
	require.NoError(t, err)
	require.True(t, resp.Queued)
	require.Len(t, f.publisher.published, 1)

	e := f.publisher.published[0]
	assert.Equal(t, events.TypeWorkoutCompleted, e.Type)
	assert.Equal(t, userID, e.UserID)
	assert.Equal(t, e.ID, *resp.EventID)

	var payload dto.WorkoutPayload
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, dto.WorkoutKindWorkout, payload.Kind)
	assert.Equal(t, 1, payload.NewExerciseCount)
	assert.True(t, payload.CompletedAt.Equal(fixedNow))
}

func TestCompleteWorkoutFailsWhenQueueUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = events.ErrBusUnavailable

	storeErr := errors.New("connection refused")
	f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).Return(storeErr)

	_, err := f.svc.CompleteWorkout(context.Background(), uuid.New(), dto.CompleteWorkoutRequest{})
	assert.ErrorIs(t, err, storeErr)
	assert.ErrorIs(t, err, events.ErrBusUnavailable)
}

func TestCompleteWorkoutRequiresStats(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()

	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(nil, nil)

	_, err := f.svc.CompleteWorkout(context.Background(), userID, dto.CompleteWorkoutRequest{})
	assert.ErrorIs(t, err, apperror.ErrStatsNotInitialized)
	assert.Empty(t, f.publisher.published)
}

func TestAwardXPGrantsShieldsOnce(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, CurrentXP: 900, Level: 4, ShieldCount: 1}

	var p persisted
	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)
	f.expectWrites(&p)

	resp, err := f.svc.AwardXP(context.Background(), userID, dto.AwardXPRequest{
		Sources: []dto.XPSourceRequest{{Amount: 800, Description: "Challenge"}, {Amount: 400, Multiplier: floatPtr(2), Description: "Double weekend"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1600.0, resp.TotalXP)
	assert.Equal(t, 4, resp.OldLevel)
	assert.Equal(t, 6, resp.NewLevel)
	assert.True(t, resp.DidLevelUp)
	assert.Equal(t, 1, resp.Rewards.Shields)

	assert.Equal(t, 2, p.stats.ShieldCount)
	require.Len(t, p.logs, 1)
	assert.Equal(t, "Challenge; Double weekend", p.logs[0].Description)
	assert.Equal(t, ReferenceManual, p.logs[0].ReferenceType)
}

func floatPtr(v float64) *float64 { return &v }

func TestAwardXPRejectsInvalidSource(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.AwardXP(context.Background(), uuid.New(), dto.AwardXPRequest{
		Sources: []dto.XPSourceRequest{{Amount: 10, Multiplier: floatPtr(0)}},
	})

	var validationErr *progression.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, progression.ErrInvalidXPSource)
}

func TestValidateStreakMilestone(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, Level: 1, StreakCount: 6, LastActivityDate: yesterday()}

	var p persisted
	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)
	f.expectWrites(&p)

	resp, err := f.svc.ValidateStreak(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, progression.StreakExtended, resp.Transition)
	assert.True(t, resp.Milestone)
	assert.Equal(t, 150.0, resp.BonusXP)
	assert.Equal(t, 1.5, resp.Multiplier)

	assert.Equal(t, 7, p.stats.StreakCount)
	assert.Equal(t, 150.0, p.stats.CurrentXP)
	require.Len(t, p.logs, 1)
	assert.Equal(t, "7 Day Streak Bonus!", p.logs[0].Description)
	assert.Equal(t, ReferenceStreak, p.logs[0].ReferenceType)
	assert.Contains(t, f.notifier.types(), entity.NotificationStreakMilestone)
}

func TestCheckAchievementsSkipsUnlocked(t *testing.T) {
	first := entity.Achievement{ID: uuid.New(), Name: "First Rep", Category: entity.CategoryStrength, Requirements: entity.AchievementRequirements{WorkoutCount: intPtr(1)}, XPReward: 50, Rarity: entity.RarityCommon}
	broken := entity.Achievement{ID: uuid.New(), Name: "Broken", Category: "cardio", XPReward: 50, Rarity: entity.RarityCommon}

	f := newFixture(t, []entity.Achievement{first, broken})
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, Level: 1, TotalWorkouts: 3}

	var p persisted
	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)
	f.repo.EXPECT().ListUnlockedIDs(gomock.Any(), userID).Return([]uuid.UUID{first.ID}, nil)
	f.expectWrites(&p)

	resp, err := f.svc.CheckAchievements(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Unlocked)
	assert.Zero(t, resp.XPAwarded)
	assert.Empty(t, f.league.points)
}

func TestInitStats(t *testing.T) {
	role := &entity.Role{ID: 2, Name: entity.RoleAthlete}

	t.Run("creates stats", func(t *testing.T) {
		f := newFixture(t, nil)
		userID := uuid.New()
		f.users.EXPECT().FindRoleByName(gomock.Any(), entity.RoleAthlete).Return(role, nil)
		f.users.EXPECT().EnsureUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *entity.User) error {
			assert.Equal(t, userID, u.ID)
			assert.Equal(t, "runner", u.Username)
			assert.Equal(t, role.ID, *u.RoleID)
			return nil
		})
		f.repo.EXPECT().CreateStats(gomock.Any(), gomock.Any()).Return(true, nil)

		resp, err := f.svc.InitStats(context.Background(), userID, dto.InitStatsRequest{Username: " runner "})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Level)
		assert.Equal(t, progression.AvatarSpark, resp.Progress.AvatarStage)
		assert.Equal(t, 100, resp.Progress.NextLevelXP)
	})

	t.Run("already initialized", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.EXPECT().FindRoleByName(gomock.Any(), entity.RoleAthlete).Return(role, nil)
		f.users.EXPECT().EnsureUser(gomock.Any(), gomock.Any()).Return(nil)
		f.repo.EXPECT().CreateStats(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.InitStats(context.Background(), uuid.New(), dto.InitStatsRequest{Username: "runner"})
		assert.ErrorIs(t, err, apperror.ErrStatsAlreadyExist)
	})

	t.Run("username taken", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.EXPECT().FindRoleByName(gomock.Any(), entity.RoleAthlete).Return(role, nil)
		f.users.EXPECT().EnsureUser(gomock.Any(), gomock.Any()).Return(gorm.ErrDuplicatedKey)

		_, err := f.svc.InitStats(context.Background(), uuid.New(), dto.InitStatsRequest{Username: "runner"})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})
}

func TestGetProgressionNotInitialized(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()
	f.repo.EXPECT().GetStats(gomock.Any(), userID).Return(nil, nil)

	_, err := f.svc.GetProgression(context.Background(), userID)
	assert.ErrorIs(t, err, apperror.ErrStatsNotInitialized)
}

func TestRemindAtRisk(t *testing.T) {
	f := newFixture(t, nil)

	unprotected := entity.UserStats{UserID: uuid.New(), StreakCount: 4, LastActivityDate: yesterday()}
	shielded := entity.UserStats{UserID: uuid.New(), StreakCount: 9, ShieldCount: 1, LastActivityDate: yesterday()}
	alreadyReminded := entity.UserStats{UserID: uuid.New(), StreakCount: 2, LastActivityDate: yesterday()}
	today := fixedNow.Add(-2 * time.Hour)
	safe := entity.UserStats{UserID: uuid.New(), StreakCount: 5, LastActivityDate: &today}

	f.notifier.sent = map[uuid.UUID]bool{alreadyReminded.UserID: true}
	f.repo.EXPECT().ListActiveStreaks(gomock.Any(), uuid.Nil, reminderPageSize).
		Return([]entity.UserStats{unprotected, shielded, alreadyReminded, safe}, nil)

	sent, err := f.svc.RemindAtRisk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, f.notifier.created, 2)
	assert.Equal(t, unprotected.UserID, f.notifier.created[0].UserID)
	assert.Contains(t, f.notifier.created[0].Message, "ends tonight")
	assert.Equal(t, shielded.UserID, f.notifier.created[1].UserID)
	assert.Contains(t, f.notifier.created[1].Message, "shield")
}

func TestHandleWorkoutCompleted(t *testing.T) {
	t.Run("uninitialized user is acknowledged", func(t *testing.T) {
		f := newFixture(t, nil)
		userID := uuid.New()
		f.expectTx()
		f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(nil, nil)

		e, err := events.New(events.TypeWorkoutCompleted, userID, uuid.Nil, dto.WorkoutPayload{Kind: dto.WorkoutKindWorkout, CompletedAt: fixedNow})
		require.NoError(t, err)
		assert.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), e))
	})

	t.Run("store failure is retried", func(t *testing.T) {
		f := newFixture(t, nil)
		storeErr := errors.New("deadlock detected")
		f.repo.EXPECT().Transaction(gomock.Any(), gomock.Any()).Return(storeErr)

		e, err := events.New(events.TypeWorkoutCompleted, uuid.New(), uuid.Nil, dto.WorkoutPayload{CompletedAt: fixedNow})
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.HandleWorkoutCompleted(context.Background(), e), storeErr)
		assert.Empty(t, f.publisher.published, "handlers never requeue themselves")
	})
}

func TestHandleActivityWithoutTimestamp(t *testing.T) {
	f := newFixture(t, nil)
	userID := uuid.New()
	stats := entity.UserStats{UserID: userID, Level: 1}

	f.expectTx()
	f.repo.EXPECT().GetStatsForUpdate(gomock.Any(), userID).Return(&stats, nil)

	e := events.Event{ID: uuid.New(), Type: events.TypeActivity, UserID: userID}
	assert.NoError(t, f.svc.HandleActivity(context.Background(), e))
}

func TestDescribeKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name    string
		sources []progression.XPSource
		want    string
	}{
		{
			name:    "joins descriptions",
			sources: []progression.XPSource{{Description: "Workout"}, {}, {Description: "Streak"}},
			want:    "Workout; Streak",
		},
		{
			name:    "ascii cut at the limit",
			sources: []progression.XPSource{{Description: strings.Repeat("a", 300)}},
			want:    strings.Repeat("a", maxDescriptionLen),
		},
		{
			name:    "two byte runes",
			sources: []progression.XPSource{{Description: strings.Repeat("é", 200)}},
			want:    strings.Repeat("é", 127),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(tt.sources)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, len(got), maxDescriptionLen)
		})
	}
}

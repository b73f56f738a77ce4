package progression

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"anoa.com/fitquest/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func achievement(name, category string, req entity.AchievementRequirements, reward int) entity.Achievement {
	return entity.Achievement{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		Requirements: req,
		XPReward:     reward,
		Rarity:       entity.RarityCommon,
	}
}

func unlockedIDs(res EvaluationResult) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(res.Unlocks))
	for _, u := range res.Unlocks {
		ids = append(ids, u.Achievement.ID)
	}
	return ids
}

func TestCheckRequirement(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.StreakCount = 7
	stats.TotalWorkouts = 12
	stats.Level = 4

	tests := []struct {
		name    string
		a       entity.Achievement
		want    bool
		wantErr error
	}{
		{name: "streak met", a: achievement("Week Warrior", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(7)}, 100), want: true},
		{name: "streak not met", a: achievement("Month", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(30)}, 500)},
		{name: "workouts met", a: achievement("Ten", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(10)}, 50), want: true},
		{name: "level not met", a: achievement("Five", entity.CategoryMilestone, entity.AchievementRequirements{Level: intPtr(5)}, 50)},
		{name: "social never unlocks", a: achievement("Friend", entity.CategorySocial, entity.AchievementRequirements{}, 50)},
		{name: "missing field", a: achievement("Broken", entity.CategoryStrength, entity.AchievementRequirements{StreakDays: intPtr(1)}, 50), wantErr: ErrMissingRequirement},
		{name: "unknown category", a: achievement("Odd", "speed", entity.AchievementRequirements{}, 50), wantErr: ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckRequirement(tt.a, stats)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateAchievementsChainsToFixedPoint(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.TotalWorkouts = 1

	// The milestone sits first so a single pass would miss it.
	catalog := []entity.Achievement{
		achievement("Level 3", entity.CategoryMilestone, entity.AchievementRequirements{Level: intPtr(3)}, 50),
		achievement("Level 2", entity.CategoryMilestone, entity.AchievementRequirements{Level: intPtr(2)}, 300),
		achievement("First Workout", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(1)}, 100),
	}

	res := EvaluateAchievements(&stats, catalog, nil, time.Now())

	require.Len(t, res.Unlocks, 3)
	assert.InDelta(t, 450, res.Stats.CurrentXP, 1e-9)
	assert.Equal(t, 3, res.Stats.Level)
	assert.LessOrEqual(t, res.Passes, len(catalog)+1)
	for _, u := range res.Unlocks {
		assert.Equal(t, 100, u.Record.Progress)
		assert.Equal(t, stats.UserID, u.Record.UserID)
	}
	assert.Equal(t, LevelRewards{}, res.UnlockRewards(1), "level 3 crosses no reward boundary")
}

func TestEvaluateAchievementsIdempotent(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.StreakCount = 3
	catalog := []entity.Achievement{
		achievement("Warm Up", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(3)}, 50),
	}

	first := EvaluateAchievements(&stats, catalog, nil, time.Now())
	require.Len(t, first.Unlocks, 1)

	second := EvaluateAchievements(&first.Stats, catalog, unlockedIDs(first), time.Now())
	assert.Empty(t, second.Unlocks)
	assert.Equal(t, first.Stats.CurrentXP, second.Stats.CurrentXP)
}

func TestEvaluateAchievementsOrderIndependent(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.TotalWorkouts = 25
	stats.StreakCount = 8

	catalog := []entity.Achievement{
		achievement("First Workout", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(1)}, 100),
		achievement("Workout 25", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(25)}, 500),
		achievement("Week", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(7)}, 300),
		achievement("Level 4", entity.CategoryMilestone, entity.AchievementRequirements{Level: intPtr(4)}, 700),
		achievement("Level 5", entity.CategoryMilestone, entity.AchievementRequirements{Level: intPtr(5)}, 50),
		achievement("Month", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(30)}, 500),
		achievement("Buddy", entity.CategorySocial, entity.AchievementRequirements{}, 50),
	}

	sorted := func(ids []uuid.UUID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		sort.Strings(out)
		return out
	}

	baseline := EvaluateAchievements(&stats, catalog, nil, time.Now())
	want := sorted(unlockedIDs(baseline))
	require.Len(t, want, 5)
	require.InDelta(t, 1650, baseline.Stats.CurrentXP, 1e-9)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]entity.Achievement(nil), catalog...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := EvaluateAchievements(&stats, shuffled, nil, time.Now())
		assert.Equal(t, want, sorted(unlockedIDs(got)))
		assert.InDelta(t, baseline.Stats.CurrentXP, got.Stats.CurrentXP, 1e-9)
	}
}

func TestEvaluateAchievementsSkipsBadEntries(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.TotalWorkouts = 5
	catalog := []entity.Achievement{
		achievement("Odd", "speed", entity.AchievementRequirements{}, 50),
		achievement("No Target", entity.CategoryMilestone, entity.AchievementRequirements{}, 50),
		achievement("Negative", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(1)}, -10),
		achievement("Five", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(5)}, 50),
	}

	res := EvaluateAchievements(&stats, catalog, nil, time.Now())
	require.Len(t, res.Unlocks, 1)
	assert.Equal(t, "Five", res.Unlocks[0].Achievement.Name)
	require.Len(t, res.Skipped, 3)
	assert.True(t, errors.Is(res.Skipped[0].Reason, ErrUnknownCategory))
	assert.True(t, errors.Is(res.Skipped[1].Reason, ErrMissingRequirement))
	assert.True(t, errors.Is(res.Skipped[2].Reason, ErrInvalidXPSource))
}

func TestEvaluateAchievementsNilStats(t *testing.T) {
	res := EvaluateAchievements(nil, []entity.Achievement{
		achievement("Any", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(0)}, 10),
	}, nil, time.Now())
	assert.False(t, res.Applied)
	assert.Empty(t, res.Unlocks)
}

func TestRequirementProgress(t *testing.T) {
	stats := entity.NewUserStats(uuid.New())
	stats.TotalWorkouts = 3
	stats.StreakCount = 10

	assert.Equal(t, 30, RequirementProgress(achievement("Ten", entity.CategoryStrength, entity.AchievementRequirements{WorkoutCount: intPtr(10)}, 0), stats))
	assert.Equal(t, 100, RequirementProgress(achievement("Week", entity.CategoryConsistency, entity.AchievementRequirements{StreakDays: intPtr(7)}, 0), stats))
	assert.Equal(t, 0, RequirementProgress(achievement("Buddy", entity.CategorySocial, entity.AchievementRequirements{}, 0), stats))
}

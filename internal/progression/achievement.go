package progression

import (
	"fmt"
	"math"
	"time"

	"anoa.com/fitquest/internal/entity"
	"github.com/google/uuid"
)

// Unlock is one newly satisfied achievement and the XP award it produced.
type Unlock struct {
	Achievement entity.Achievement     `json:"achievement"`
	Record      entity.UserAchievement `json:"record"`
	Award       AwardResult            `json:"award"`
}

// SkippedAchievement is a catalog entry the evaluator could not judge.
type SkippedAchievement struct {
	AchievementID uuid.UUID `json:"achievement_id"`
	Name          string    `json:"name"`
	Reason        error     `json:"-"`
}

// EvaluationResult is the outcome of EvaluateAchievements. Stats include every reward.
type EvaluationResult struct {
	Stats   entity.UserStats     `json:"stats"`
	Applied bool                 `json:"applied"`
	Unlocks []Unlock             `json:"unlocks"`
	Skipped []SkippedAchievement `json:"-"`
	Passes  int                  `json:"passes"`
}

// CheckRequirement evaluates the category predicate of one achievement. Categories
// without a predicate never unlock.
func CheckRequirement(a entity.Achievement, stats entity.UserStats) (bool, error) {
	req := a.Requirements
	switch a.Category {
	case entity.CategoryConsistency:
		if req.StreakDays == nil {
			return false, fmt.Errorf("%w: streak_days", ErrMissingRequirement)
		}
		return stats.StreakCount >= *req.StreakDays, nil
	case entity.CategoryStrength:
		if req.WorkoutCount == nil {
			return false, fmt.Errorf("%w: workout_count", ErrMissingRequirement)
		}
		return stats.TotalWorkouts >= *req.WorkoutCount, nil
	case entity.CategoryMilestone:
		if req.Level == nil {
			return false, fmt.Errorf("%w: level", ErrMissingRequirement)
		}
		return stats.Level >= *req.Level, nil
	case entity.CategorySocial:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, a.Category)
	}
}

// RequirementProgress is the 0-100 completion of a locked achievement.
func RequirementProgress(a entity.Achievement, stats entity.UserStats) int {
	var current, target int
	req := a.Requirements
	switch {
	case a.Category == entity.CategoryConsistency && req.StreakDays != nil:
		current, target = stats.StreakCount, *req.StreakDays
	case a.Category == entity.CategoryStrength && req.WorkoutCount != nil:
		current, target = stats.TotalWorkouts, *req.WorkoutCount
	case a.Category == entity.CategoryMilestone && req.Level != nil:
		current, target = stats.Level, *req.Level
	default:
		return 0
	}
	if target <= 0 || current >= target {
		return 100
	}
	return int(math.Floor(float64(current) / float64(target) * 100))
}

// EvaluateAchievements unlocks every catalog entry whose predicate holds, feeding each
// reward back into the stats. It rescans until a pass unlocks nothing, so an
// achievement's XP can qualify a milestone later in the catalog. At most
// len(catalog)+1 passes run.
func EvaluateAchievements(stats *entity.UserStats, catalog []entity.Achievement, unlocked []uuid.UUID, now time.Time) EvaluationResult {
	if stats == nil {
		return EvaluationResult{}
	}

	current := *stats
	result := EvaluationResult{Applied: true}

	done := make(map[uuid.UUID]bool, len(unlocked)+len(catalog))
	for _, id := range unlocked {
		done[id] = true
	}
	skipped := make(map[uuid.UUID]bool)

	maxPasses := len(catalog) + 1
	for pass := 0; pass < maxPasses; pass++ {
		result.Passes++
		progressed := false

		for _, a := range catalog {
			if done[a.ID] || skipped[a.ID] {
				continue
			}

			ok, err := CheckRequirement(a, current)
			if err != nil {
				skipped[a.ID] = true
				result.Skipped = append(result.Skipped, SkippedAchievement{AchievementID: a.ID, Name: a.Name, Reason: err})
				continue
			}
			if !ok {
				continue
			}

			award, err := AwardXP(&current, []XPSource{{
				Amount:      float64(a.XPReward),
				Multiplier:  1,
				Description: "Achievement: " + a.Name,
			}})
			if err != nil {
				skipped[a.ID] = true
				result.Skipped = append(result.Skipped, SkippedAchievement{AchievementID: a.ID, Name: a.Name, Reason: err})
				continue
			}

			current = award.Stats
			done[a.ID] = true
			progressed = true
			result.Unlocks = append(result.Unlocks, Unlock{
				Achievement: a,
				Record: entity.UserAchievement{
					UserID:        stats.UserID,
					AchievementID: a.ID,
					UnlockedAt:    now,
					Progress:      100,
				},
				Award: award,
			})
		}

		if !progressed {
			break
		}
	}

	result.Stats = current
	return result
}

// UnlockRewards sums the level rewards of a whole evaluation so callers grant shields
// and evolutions once against the starting level.
func (r EvaluationResult) UnlockRewards(startLevel int) LevelRewards {
	return RewardsForLevelChange(startLevel, r.Stats.Level)
}

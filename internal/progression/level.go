package progression

import (
	"fmt"
	"math"

	"anoa.com/fitquest/internal/entity"
)

// XP reward table.
const (
	XPWorkoutCompletion    = 50
	XPPracticeSession      = 25
	XPNewExercise          = 100
	XPStreakMilestone      = 150
	XPAchievementCommon    = 50
	XPAchievementRare      = 100
	XPAchievementEpic      = 200
	XPAchievementLegendary = 500
)

// Level curve: reaching level L needs (L-1)^2 * BaseLevelXP cumulative XP.
const (
	BaseLevelXP         = 100
	ShieldLevelInterval = 5
)

// MaxXP bounds cumulative XP so the level always fits an int.
const MaxXP = 1e12

// Avatar evolution thresholds.
const (
	LevelEvolution1 = 10 // spark -> bolt
	LevelEvolution2 = 25 // bolt -> storm
	LevelEvolution3 = 50 // storm -> thunder-god
)

var evolutionThresholds = []int{LevelEvolution1, LevelEvolution2, LevelEvolution3}

const (
	AvatarSpark      = "spark"
	AvatarBolt       = "bolt"
	AvatarStorm      = "storm"
	AvatarThunderGod = "thunder-god"
)

// XPSource is one XP-granting event. It is consumed by AwardXP and never stored.
type XPSource struct {
	Amount      float64 `json:"amount"`
	Multiplier  float64 `json:"multiplier"`
	Description string  `json:"description"`
}

// LevelRewards are the side effects of a level change that the caller applies.
type LevelRewards struct {
	Shields    int   `json:"shields"`
	Evolutions []int `json:"evolutions,omitempty"`
}

// AwardResult is the outcome of AwardXP. Applied is false when no stats were loaded.
type AwardResult struct {
	Stats      entity.UserStats `json:"stats"`
	Applied    bool             `json:"applied"`
	TotalXP    float64          `json:"total_xp"`
	OldLevel   int              `json:"old_level"`
	NewLevel   int              `json:"new_level"`
	DidLevelUp bool             `json:"did_level_up"`
	Rewards    LevelRewards     `json:"rewards"`
}

// LevelProgress describes the XP bar for the current level.
type LevelProgress struct {
	Level         int     `json:"level"`
	CurrentXP     float64 `json:"current_xp"`
	LevelFloorXP  int     `json:"level_floor_xp"`
	NextLevelXP   int     `json:"next_level_xp"`
	XPToNextLevel float64 `json:"xp_to_next_level"`
	Progress      float64 `json:"progress"` // 0-100
	AvatarStage   string  `json:"avatar_stage"`
}

// LevelForXP maps cumulative XP to a level. Negative or NaN XP is level 1; XP above
// MaxXP counts as MaxXP.
func LevelForXP(xp float64) int {
	if math.IsNaN(xp) || xp <= 0 {
		return 1
	}
	if xp > MaxXP {
		xp = MaxXP
	}
	return int(math.Floor(math.Sqrt(xp/BaseLevelXP))) + 1
}

// RequiredXPForLevel is the cumulative XP at which level starts.
func RequiredXPForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	d := level - 1
	return d * d * BaseLevelXP
}

// RewardsForLevelChange computes the shields earned and evolution thresholds crossed
// when moving from oldLevel to newLevel.
func RewardsForLevelChange(oldLevel, newLevel int) LevelRewards {
	if newLevel <= oldLevel {
		return LevelRewards{}
	}
	if oldLevel < 1 {
		oldLevel = 1
	}

	rewards := LevelRewards{
		Shields: newLevel/ShieldLevelInterval - oldLevel/ShieldLevelInterval,
	}
	for _, threshold := range evolutionThresholds {
		if oldLevel < threshold && newLevel >= threshold {
			rewards.Evolutions = append(rewards.Evolutions, threshold)
		}
	}
	return rewards
}

// AvatarStage returns the avatar evolution stage for a level.
func AvatarStage(level int) string {
	switch {
	case level >= LevelEvolution3:
		return AvatarThunderGod
	case level >= LevelEvolution2:
		return AvatarStorm
	case level >= LevelEvolution1:
		return AvatarBolt
	default:
		return AvatarSpark
	}
}

// ValidateSources rejects negative amounts and non-positive multipliers.
func ValidateSources(sources []XPSource) error {
	for i, src := range sources {
		field := fmt.Sprintf("sources[%d]", i)
		if math.IsNaN(src.Amount) || math.IsInf(src.Amount, 0) || src.Amount < 0 {
			return &ValidationError{Field: field + ".amount", Reason: "must be a finite number >= 0", Err: ErrInvalidXPSource}
		}
		if math.IsNaN(src.Multiplier) || math.IsInf(src.Multiplier, 0) || src.Multiplier <= 0 {
			return &ValidationError{Field: field + ".multiplier", Reason: "must be a finite number > 0", Err: ErrInvalidXPSource}
		}
	}
	return nil
}

// AwardXP adds the sum of amount*multiplier to the stats and recomputes the level.
// Fractional XP is kept as is. The input stats are never modified; on invalid input
// nothing is applied.
func AwardXP(stats *entity.UserStats, sources []XPSource) (AwardResult, error) {
	if err := ValidateSources(sources); err != nil {
		return AwardResult{}, err
	}

	var total float64
	for _, src := range sources {
		total += src.Amount * src.Multiplier
	}
	if math.IsInf(total, 0) || total > MaxXP {
		return AwardResult{}, &ValidationError{Field: "sources", Reason: "total xp is too large", Err: ErrInvalidXPSource}
	}

	if stats == nil {
		return AwardResult{}, nil
	}
	if stats.CurrentXP+total > MaxXP {
		return AwardResult{}, &ValidationError{Field: "sources", Reason: "award would exceed the xp cap", Err: ErrInvalidXPSource}
	}

	updated := *stats
	oldLevel := stats.Level
	if oldLevel < 1 {
		oldLevel = LevelForXP(stats.CurrentXP)
	}

	updated.CurrentXP += total
	updated.Level = LevelForXP(updated.CurrentXP)

	return AwardResult{
		Stats:      updated,
		Applied:    true,
		TotalXP:    total,
		OldLevel:   oldLevel,
		NewLevel:   updated.Level,
		DidLevelUp: updated.Level > oldLevel,
		Rewards:    RewardsForLevelChange(oldLevel, updated.Level),
	}, nil
}

// ProgressForXP builds the XP bar state for a cumulative XP value.
func ProgressForXP(xp float64) LevelProgress {
	level := LevelForXP(xp)
	floor := RequiredXPForLevel(level)
	next := RequiredXPForLevel(level + 1)

	current := xp
	if math.IsNaN(current) || current < 0 {
		current = 0
	}

	progress := (current - float64(floor)) / float64(next-floor) * 100
	progress = math.Max(0, math.Min(100, progress))

	return LevelProgress{
		Level:         level,
		CurrentXP:     current,
		LevelFloorXP:  floor,
		NextLevelXP:   next,
		XPToNextLevel: math.Max(0, float64(next)-current),
		// Round progress to 2 decimal places
		Progress:    math.Round(progress*100) / 100,
		AvatarStage: AvatarStage(level),
	}
}

// AchievementRewardForRarity is the default reward for a definition created without one.
func AchievementRewardForRarity(rarity string) int {
	switch rarity {
	case entity.RarityLegendary:
		return XPAchievementLegendary
	case entity.RarityEpic:
		return XPAchievementEpic
	case entity.RarityRare:
		return XPAchievementRare
	default:
		return XPAchievementCommon
	}
}

package progression

import (
	"fmt"
	"time"

	"anoa.com/fitquest/internal/entity"
)

// Streak tiers for the multiplier.
const (
	StreakTierWarm    = 3
	StreakTierHot     = 7
	StreakTierBlazing = 14
	StreakTierInferno = 30

	StreakMilestoneInterval = 7
)

type StreakTransition string

const (
	StreakStarted  StreakTransition = "started"
	StreakSameDay  StreakTransition = "same_day"
	StreakExtended StreakTransition = "extended"
	StreakShielded StreakTransition = "shielded"
	StreakReset    StreakTransition = "reset"
)

// StreakResult is the outcome of ValidateStreak. Bonus is set when a milestone was awarded.
type StreakResult struct {
	Stats      entity.UserStats `json:"stats"`
	Applied    bool             `json:"applied"`
	Transition StreakTransition `json:"transition"`
	DaysSince  int              `json:"days_since"`
	Multiplier float64          `json:"multiplier"`
	ShieldUsed bool             `json:"shield_used"`
	Milestone  bool             `json:"milestone"`
	Bonus      *AwardResult     `json:"bonus,omitempty"`
}

// StreakRisk is a read-only view of where a streak stands before today's activity.
type StreakRisk struct {
	StreakCount int  `json:"streak_count"`
	ShieldCount int  `json:"shield_count"`
	DaysSince   int  `json:"days_since"`
	AtRisk      bool `json:"at_risk"`
	Unprotected bool `json:"unprotected"`
	Broken      bool `json:"broken"`
}

// StreakMultiplier returns the XP multiplier for a streak length.
func StreakMultiplier(count int) float64 {
	switch {
	case count >= StreakTierInferno:
		return 2.0
	case count >= StreakTierBlazing:
		return 1.75
	case count >= StreakTierHot:
		return 1.5
	case count >= StreakTierWarm:
		return 1.25
	default:
		return 1.0
	}
}

// DaysBetween counts calendar-day boundaries crossed from from to to in loc.
// Time of day is ignored.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return dayNumber(to.In(loc)) - dayNumber(from.In(loc))
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// StreakMilestoneSource is the bonus granted when a streak reaches a multiple of seven days.
func StreakMilestoneSource(count int) XPSource {
	return XPSource{
		Amount:      XPStreakMilestone,
		Multiplier:  1,
		Description: fmt.Sprintf("%d Day Streak Bonus!", count),
	}
}

// ValidateStreak applies an activity at now to the streak. A gap of one calendar day
// extends it, a longer gap consumes a shield when one is held and resets it otherwise.
// Activity that appears to precede the last one is treated as the same day.
func ValidateStreak(stats *entity.UserStats, now time.Time, loc *time.Location) (StreakResult, error) {
	if now.IsZero() {
		return StreakResult{}, &ValidationError{Field: "now", Reason: "timestamp is required", Err: ErrInvalidTimestamp}
	}
	if stats == nil {
		return StreakResult{Multiplier: 1}, nil
	}

	updated := *stats
	result := StreakResult{Applied: true}

	if stats.LastActivityDate == nil || stats.LastActivityDate.IsZero() {
		result.Transition = StreakStarted
		updated.StreakCount = 1
		updated.LastActivityDate = timePtr(now)
	} else {
		last := *stats.LastActivityDate
		days := DaysBetween(last, now, loc)
		if days < 0 {
			days = 0
		}
		result.DaysSince = days

		switch {
		case days == 0:
			result.Transition = StreakSameDay
			if now.After(last) {
				updated.LastActivityDate = timePtr(now)
			}
		case days == 1:
			result.Transition = StreakExtended
			updated.StreakCount++
			updated.LastActivityDate = timePtr(now)
		case stats.ShieldCount > 0:
			result.Transition = StreakShielded
			result.ShieldUsed = true
			updated.ShieldCount--
			updated.LastActivityDate = timePtr(now)
		default:
			result.Transition = StreakReset
			updated.StreakCount = 0
			updated.LastActivityDate = timePtr(now)
		}
	}

	if updated.StreakCount > updated.LongestStreak {
		updated.LongestStreak = updated.StreakCount
	}
	result.Multiplier = StreakMultiplier(updated.StreakCount)

	grew := result.Transition == StreakStarted || result.Transition == StreakExtended
	if grew && updated.StreakCount > 0 && updated.StreakCount%StreakMilestoneInterval == 0 {
		award, err := AwardXP(&updated, []XPSource{StreakMilestoneSource(updated.StreakCount)})
		if err != nil {
			return StreakResult{}, err
		}
		updated = award.Stats
		result.Milestone = true
		result.Bonus = &award
	}

	result.Stats = updated
	return result, nil
}

// AssessStreakRisk reports whether the streak survives only if the user is active today.
func AssessStreakRisk(stats *entity.UserStats, now time.Time, loc *time.Location) StreakRisk {
	if stats == nil {
		return StreakRisk{}
	}
	risk := StreakRisk{
		StreakCount: stats.StreakCount,
		ShieldCount: stats.ShieldCount,
	}
	if stats.LastActivityDate == nil || stats.StreakCount == 0 {
		return risk
	}

	days := DaysBetween(*stats.LastActivityDate, now, loc)
	if days < 0 {
		days = 0
	}
	risk.DaysSince = days

	switch {
	case days == 1:
		risk.AtRisk = true
		risk.Unprotected = stats.ShieldCount == 0
	case days >= 2 && stats.ShieldCount > 0:
		risk.AtRisk = true
	case days >= 2:
		risk.Broken = true
	}
	return risk
}

func timePtr(t time.Time) *time.Time {
	return &t
}

package dto

import (
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/progression"
	"github.com/google/uuid"
)

const (
	WorkoutKindWorkout  = "workout"
	WorkoutKindPractice = "practice"
)

type InitStatsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
}

type XPSourceRequest struct {
	Amount      float64  `json:"amount" binding:"gte=0,lte=100000"`
	Multiplier  *float64 `json:"multiplier" binding:"omitempty,gt=0,lte=10"`
	Description string   `json:"description" binding:"max=255"`
}

type AwardXPRequest struct {
	Sources       []XPSourceRequest `json:"sources" binding:"required,min=1,max=20,dive"`
	ReferenceType string            `json:"reference_type" binding:"omitempty,max=50"`
}

// ToSources applies the default multiplier of 1.
func (r AwardXPRequest) ToSources() []progression.XPSource {
	out := make([]progression.XPSource, 0, len(r.Sources))
	for _, s := range r.Sources {
		multiplier := 1.0
		if s.Multiplier != nil {
			multiplier = *s.Multiplier
		}
		out = append(out, progression.XPSource{
			Amount:      s.Amount,
			Multiplier:  multiplier,
			Description: s.Description,
		})
	}
	return out
}

type CompleteWorkoutRequest struct {
	Kind             string `json:"kind" binding:"omitempty,oneof=workout practice"`
	NewExerciseCount int    `json:"new_exercise_count" binding:"gte=0,max=50"`
}

// WorkoutPayload is the body of a workout_completed event.
type WorkoutPayload struct {
	Kind             string    `json:"kind"`
	NewExerciseCount int       `json:"new_exercise_count"`
	CompletedAt      time.Time `json:"completed_at"`
}

type StreakView struct {
	Count        int                    `json:"count"`
	Longest      int                    `json:"longest"`
	ShieldCount  int                    `json:"shield_count"`
	Multiplier   float64                `json:"multiplier"`
	LastActivity *time.Time             `json:"last_activity_date"`
	Risk         progression.StreakRisk `json:"risk"`
}

type ProgressionResponse struct {
	UserID        uuid.UUID                 `json:"user_id"`
	CurrentXP     float64                   `json:"current_xp"`
	Level         int                       `json:"level"`
	TotalWorkouts int                       `json:"total_workouts"`
	Progress      progression.LevelProgress `json:"progress"`
	Streak        StreakView                `json:"streak"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func NewProgressionResponse(stats entity.UserStats, now time.Time, loc *time.Location) ProgressionResponse {
	return ProgressionResponse{
		UserID:        stats.UserID,
		CurrentXP:     stats.CurrentXP,
		Level:         stats.Level,
		TotalWorkouts: stats.TotalWorkouts,
		Progress:      progression.ProgressForXP(stats.CurrentXP),
		Streak: StreakView{
			Count:        stats.StreakCount,
			Longest:      stats.LongestStreak,
			ShieldCount:  stats.ShieldCount,
			Multiplier:   progression.StreakMultiplier(stats.StreakCount),
			LastActivity: stats.LastActivityDate,
			Risk:         progression.AssessStreakRisk(&stats, now, loc),
		},
		UpdatedAt: stats.UpdatedAt,
	}
}

type AwardXPResponse struct {
	TotalXP      float64                  `json:"total_xp"`
	OldLevel     int                      `json:"old_level"`
	NewLevel     int                      `json:"new_level"`
	DidLevelUp   bool                     `json:"did_level_up"`
	Rewards      progression.LevelRewards `json:"rewards"`
	LeaguePoints int                      `json:"league_points"`
	Progression  ProgressionResponse      `json:"progression"`
}

type StreakResponse struct {
	Transition  progression.StreakTransition `json:"transition"`
	DaysSince   int                          `json:"days_since"`
	Multiplier  float64                      `json:"multiplier"`
	ShieldUsed  bool                         `json:"shield_used"`
	Milestone   bool                         `json:"milestone"`
	BonusXP     float64                      `json:"bonus_xp"`
	Rewards     progression.LevelRewards     `json:"rewards"`
	Progression ProgressionResponse          `json:"progression"`
}

type UnlockedAchievement struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Rarity   string    `json:"rarity"`
	XPReward int       `json:"xp_reward"`
}

type AchievementCheckResponse struct {
	Unlocked    []UnlockedAchievement    `json:"unlocked"`
	XPAwarded   float64                  `json:"xp_awarded"`
	Rewards     progression.LevelRewards `json:"rewards"`
	Progression ProgressionResponse      `json:"progression"`
}

// WorkoutResponse with Queued set means the workout was handed to the event feed and
// will be applied asynchronously; the other fields are empty then.
type WorkoutResponse struct {
	Queued       bool                     `json:"queued,omitempty"`
	EventID      *uuid.UUID               `json:"event_id,omitempty"`
	Streak       StreakResponse           `json:"streak"`
	XPAwarded    float64                  `json:"xp_awarded"`
	Unlocked     []UnlockedAchievement    `json:"unlocked"`
	Rewards      progression.LevelRewards `json:"rewards"`
	LeaguePoints int                      `json:"league_points"`
	Progression  ProgressionResponse      `json:"progression"`
}

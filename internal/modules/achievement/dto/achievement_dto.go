package dto

import (
	"time"

	"anoa.com/fitquest/internal/entity"
	"github.com/google/uuid"
)

type RequirementsRequest struct {
	StreakDays   *int `json:"streak_days" binding:"omitempty,gt=0"`
	WorkoutCount *int `json:"workout_count" binding:"omitempty,gt=0"`
	Level        *int `json:"level" binding:"omitempty,gt=1"`
}

type CreateAchievementRequest struct {
	Name         string              `json:"name" binding:"required,min=3,max=100"`
	Description  string              `json:"description" binding:"max=500"`
	Category     string              `json:"category" binding:"required,oneof=consistency strength social milestone"`
	Requirements RequirementsRequest `json:"requirements"`
	XPReward     int                 `json:"xp_reward" binding:"gte=0,max=10000"`
	Rarity       string              `json:"rarity" binding:"required,oneof=common rare epic legendary"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"required,min=1,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type AchievementResponse struct {
	ID           uuid.UUID                      `json:"id"`
	Name         string                         `json:"name"`
	Description  string                         `json:"description"`
	Category     string                         `json:"category"`
	Requirements entity.AchievementRequirements `json:"requirements"`
	XPReward     int                            `json:"xp_reward"`
	Rarity       string                         `json:"rarity"`
}

type UserAchievementResponse struct {
	AchievementResponse
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Progress   int        `json:"progress"`
}

func NewAchievementResponse(a entity.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Category:     a.Category,
		Requirements: a.Requirements,
		XPReward:     a.XPReward,
		Rarity:       a.Rarity,
	}
}

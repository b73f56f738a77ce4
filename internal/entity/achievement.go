package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryConsistency = "consistency"
	CategoryStrength    = "strength"
	CategorySocial      = "social"
	CategoryMilestone   = "milestone"
)

const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// AchievementRequirements holds the category-specific thresholds. Only the field
// matching the achievement's category is read.
type AchievementRequirements struct {
	StreakDays   *int `json:"streak_days,omitempty"`
	WorkoutCount *int `json:"workout_count,omitempty"`
	Level        *int `json:"level,omitempty"`
}

type Achievement struct {
	ID           uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string                  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description  string                  `gorm:"type:text" json:"description"`
	Category     string                  `gorm:"size:20;not null;index" json:"category"`
	Requirements AchievementRequirements `gorm:"type:jsonb;serializer:json" json:"requirements"`
	XPReward     int                     `gorm:"not null;default:0" json:"xp_reward"`
	Rarity       string                  `gorm:"size:20;not null" json:"rarity"`
	CreatedAt    time.Time               `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// UserAchievement is created once per (user, achievement) and never updated.
type UserAchievement struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	UnlockedAt    time.Time    `gorm:"not null" json:"unlocked_at"`
	Progress      int          `gorm:"not null;default:0" json:"progress"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) (err error) {
	if ua.ID == uuid.Nil {
		ua.ID, err = uuid.NewV7()
	}
	return
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is the per-user progression record. Level is a cache of LevelForXP(CurrentXP).
type UserStats struct {
	UserID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentXP        float64    `gorm:"type:double precision;not null;default:0" json:"current_xp"`
	Level            int        `gorm:"not null;default:1" json:"level"`
	StreakCount      int        `gorm:"not null;default:0" json:"streak_count"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	ShieldCount      int        `gorm:"not null;default:0" json:"shield_count"`
	TotalWorkouts    int        `gorm:"not null;default:0" json:"total_workouts"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewUserStats returns the zero-default record created with a profile.
func NewUserStats(userID uuid.UUID) UserStats {
	return UserStats{
		UserID: userID,
		Level:  1,
	}
}

// XPLog is an audit row for one applied XP award.
type XPLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index:idx_xp_user_date,priority:1;not null" json:"user_id"`
	Amount        float64   `gorm:"type:double precision;not null" json:"amount"`
	Description   string    `gorm:"size:255" json:"description"`
	ReferenceType string    `gorm:"size:50" json:"reference_type"` // 'workout', 'streak', 'achievement', 'manual'
	CreatedAt     time.Time `gorm:"index:idx_xp_user_date,priority:2" json:"created_at"`
}

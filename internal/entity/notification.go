package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationLevelUp         = "level_up"
	NotificationAvatarEvolution = "avatar_evolution"
	NotificationAchievement     = "achievement_unlocked"
	NotificationStreakMilestone = "streak_milestone"
	NotificationStreakAtRisk    = "streak_at_risk"
	NotificationLeagueResult    = "league_result"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`          // achievement, cohort or the user itself
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"` // 'progression', 'achievement', 'league'
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

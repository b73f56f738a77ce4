package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeagueCohort struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Tier       string     `gorm:"size:20;not null;index:idx_cohort_tier_end,priority:1" json:"tier"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    time.Time  `gorm:"not null;index:idx_cohort_tier_end,priority:2" json:"end_date"`
	MaxMembers int        `gorm:"not null;default:30" json:"max_members"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *LeagueCohort) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// IsOpen reports whether the cohort still admits members at now.
func (c LeagueCohort) IsOpen(now time.Time) bool {
	return c.ClosedAt == nil && !c.EndDate.Before(now)
}

type LeagueMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CohortID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cohort_user,priority:1" json:"cohort_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cohort_user,priority:2;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Points   int       `gorm:"not null;default:0" json:"points"`
	Position int       `gorm:"not null;default:0" json:"position"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

func (m *LeagueMember) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

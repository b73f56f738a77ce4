package repository

import (
	"context"
	"errors"

	"anoa.com/fitquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressionRepository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx ProgressionRepository) error) error
	// GetStats returns nil, nil when the user has no stats yet.
	GetStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
	// GetStatsForUpdate is GetStats with the row locked until the transaction ends.
	GetStatsForUpdate(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
	CreateStats(ctx context.Context, stats *entity.UserStats) (bool, error)
	SaveStats(ctx context.Context, stats *entity.UserStats) error
	CreateXPLogs(ctx context.Context, logs []entity.XPLog) error
	ListUnlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	InsertUserAchievements(ctx context.Context, records []entity.UserAchievement) (int64, error)
	// ListActiveStreaks pages through stats with a running streak, ordered by user id.
	ListActiveStreaks(ctx context.Context, afterUserID uuid.UUID, limit int) ([]entity.UserStats, error)
}

type progressionRepository struct {
	db *gorm.DB
}

func NewProgressionRepository(db *gorm.DB) ProgressionRepository {
	return &progressionRepository{db: db}
}

func (r *progressionRepository) Transaction(ctx context.Context, fn func(tx ProgressionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&progressionRepository{db: tx})
	})
}

func (r *progressionRepository) GetStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	return r.findStats(r.db.WithContext(ctx), userID)
}

func (r *progressionRepository) GetStatsForUpdate(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	return r.findStats(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *progressionRepository) findStats(db *gorm.DB, userID uuid.UUID) (*entity.UserStats, error) {
	var stats entity.UserStats
	err := db.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *progressionRepository) CreateStats(ctx context.Context, stats *entity.UserStats) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(stats)
	return res.RowsAffected > 0, res.Error
}

func (r *progressionRepository) SaveStats(ctx context.Context, stats *entity.UserStats) error {
	return r.db.WithContext(ctx).
		Model(&entity.UserStats{}).
		Where("user_id = ?", stats.UserID).
		Updates(map[string]interface{}{
			"current_xp":         stats.CurrentXP,
			"level":              stats.Level,
			"streak_count":       stats.StreakCount,
			"longest_streak":     stats.LongestStreak,
			"last_activity_date": stats.LastActivityDate,
			"shield_count":       stats.ShieldCount,
			"total_workouts":     stats.TotalWorkouts,
			"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *progressionRepository) CreateXPLogs(ctx context.Context, logs []entity.XPLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}

func (r *progressionRepository) ListUnlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	return ids, err
}

// InsertUserAchievements skips pairs that are already unlocked and returns the rows written.
func (r *progressionRepository) InsertUserAchievements(ctx context.Context, records []entity.UserAchievement) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(&records)
	return res.RowsAffected, res.Error
}

func (r *progressionRepository) ListActiveStreaks(ctx context.Context, afterUserID uuid.UUID, limit int) ([]entity.UserStats, error) {
	var stats []entity.UserStats
	err := r.db.WithContext(ctx).
		Where("streak_count > 0 AND last_activity_date IS NOT NULL AND user_id > ?", afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

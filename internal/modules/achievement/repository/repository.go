package repository

import (
	"context"

	"anoa.com/fitquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	FindAll(ctx context.Context) ([]entity.Achievement, error)
	FindByName(ctx context.Context, name string) (*entity.Achievement, error)
	Create(ctx context.Context, achievement *entity.Achievement) error
	// CreateIfMissing inserts by unique name and reports whether a row was written.
	CreateIfMissing(ctx context.Context, achievement *entity.Achievement) (bool, error)
	FindUnlockedByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) FindAll(ctx context.Context) ([]entity.Achievement, error) {
	var achievements []entity.Achievement
	err := r.db.WithContext(ctx).
		Order("category ASC, xp_reward ASC, name ASC").
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) FindByName(ctx context.Context, name string) (*entity.Achievement, error) {
	var achievement entity.Achievement
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&achievement).Error; err != nil {
		return nil, err
	}
	return &achievement, nil
}

func (r *achievementRepository) Create(ctx context.Context, achievement *entity.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *achievementRepository) CreateIfMissing(ctx context.Context, achievement *entity.Achievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(achievement)
	return res.RowsAffected > 0, res.Error
}

func (r *achievementRepository) FindUnlockedByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	var unlocked []entity.UserAchievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&unlocked).Error
	return unlocked, err
}

package bootstrap

import (
	"fmt"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.UserStats{},
		&entity.XPLog{},
		&entity.Achievement{},
		&entity.UserAchievement{},
		&entity.LeagueCohort{},
		&entity.LeagueMember{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Manages the achievement catalog"},
		{Name: entity.RoleAthlete, Description: "Regular user"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser mirrors the identity adminID with the admin role so it can manage the
// catalog. Identities themselves live with the auth provider.
func SeedAdminUser(db *gorm.DB, adminID string) error {
	if adminID == "" {
		return nil
	}
	id, err := uuid.Parse(adminID)
	if err != nil {
		return fmt.Errorf("invalid admin user id: %w", err)
	}

	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	admin := entity.User{
		ID:       id,
		Username: "admin",
		RoleID:   &adminRole.ID,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_id"}),
	}).Create(&admin)
	if result.Error != nil {
		return result.Error
	}

	logger.Logger.Info("admin_user_seeded", zap.String("user_id", id.String()))
	return nil
}

package service

import "anoa.com/fitquest/internal/entity"

func req(streakDays, workoutCount, level int) entity.AchievementRequirements {
	var r entity.AchievementRequirements
	if streakDays > 0 {
		r.StreakDays = &streakDays
	}
	if workoutCount > 0 {
		r.WorkoutCount = &workoutCount
	}
	if level > 0 {
		r.Level = &level
	}
	return r
}

// DefaultCatalog is seeded on startup. Rewards left at zero take the rarity default.
func DefaultCatalog() []entity.Achievement {
	return []entity.Achievement{
		{Name: "First Rep", Description: "Complete your first workout.", Category: entity.CategoryStrength, Requirements: req(0, 1, 0), Rarity: entity.RarityCommon},
		{Name: "Getting Strong", Description: "Complete 10 workouts.", Category: entity.CategoryStrength, Requirements: req(0, 10, 0), Rarity: entity.RarityRare},
		{Name: "Iron Habit", Description: "Complete 50 workouts.", Category: entity.CategoryStrength, Requirements: req(0, 50, 0), Rarity: entity.RarityEpic},
		{Name: "Centurion", Description: "Complete 100 workouts.", Category: entity.CategoryStrength, Requirements: req(0, 100, 0), Rarity: entity.RarityLegendary},

		{Name: "Spark", Description: "Train 3 days in a row.", Category: entity.CategoryConsistency, Requirements: req(3, 0, 0), Rarity: entity.RarityCommon},
		{Name: "Week Warrior", Description: "Keep a 7 day streak.", Category: entity.CategoryConsistency, Requirements: req(7, 0, 0), Rarity: entity.RarityRare},
		{Name: "Fortnight Flame", Description: "Keep a 14 day streak.", Category: entity.CategoryConsistency, Requirements: req(14, 0, 0), Rarity: entity.RarityEpic},
		{Name: "Rainbow Flame", Description: "Keep a 30 day streak.", Category: entity.CategoryConsistency, Requirements: req(30, 0, 0), Rarity: entity.RarityLegendary},

		{Name: "Level 5", Description: "Reach level 5.", Category: entity.CategoryMilestone, Requirements: req(0, 0, 5), Rarity: entity.RarityCommon},
		{Name: "Bolt Form", Description: "Reach level 10 and evolve your avatar.", Category: entity.CategoryMilestone, Requirements: req(0, 0, 10), Rarity: entity.RarityRare},
		{Name: "Storm Form", Description: "Reach level 25.", Category: entity.CategoryMilestone, Requirements: req(0, 0, 25), Rarity: entity.RarityEpic},
		{Name: "Thunder God", Description: "Reach level 50.", Category: entity.CategoryMilestone, Requirements: req(0, 0, 50), Rarity: entity.RarityLegendary},

		{Name: "Training Buddy", Description: "Work out with a friend.", Category: entity.CategorySocial, Rarity: entity.RarityCommon},
	}
}

package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/progression"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeagueRepository interface {
	Transaction(ctx context.Context, fn func(tx LeagueRepository) error) error
	// FindOpenCohorts lists cohorts of tier that are open at now with their member counts.
	FindOpenCohorts(ctx context.Context, tier string, now time.Time) ([]progression.CohortOccupancy, error)
	// LockCohort loads the cohort row FOR UPDATE.
	LockCohort(ctx context.Context, id uuid.UUID) (*entity.LeagueCohort, error)
	CreateCohort(ctx context.Context, cohort *entity.LeagueCohort) error
	CountMembers(ctx context.Context, cohortID uuid.UUID) (int64, error)
	ListMembers(ctx context.Context, cohortID uuid.UUID) ([]entity.LeagueMember, error)
	// FindActiveMembership returns nil, nil, nil when the user is in no open cohort.
	FindActiveMembership(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.LeagueMember, *entity.LeagueCohort, error)
	CreateMember(ctx context.Context, member *entity.LeagueMember) error
	// LockUser holds the user's row FOR UPDATE so enrollments of one user serialize.
	LockUser(ctx context.Context, userID uuid.UUID) error
	AddPoints(ctx context.Context, memberID uuid.UUID, points int) error
	UpdatePositions(ctx context.Context, members []entity.LeagueMember) error
	FindExpiredCohorts(ctx context.Context, now time.Time, limit int) ([]entity.LeagueCohort, error)
	CloseCohort(ctx context.Context, id uuid.UUID, at time.Time) error
}

type leagueRepository struct {
	db *gorm.DB
}

func NewLeagueRepository(db *gorm.DB) LeagueRepository {
	return &leagueRepository{db: db}
}

func (r *leagueRepository) Transaction(ctx context.Context, fn func(tx LeagueRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&leagueRepository{db: tx})
	})
}

type cohortRow struct {
	entity.LeagueCohort
	MemberCount int
}

func (r *leagueRepository) FindOpenCohorts(ctx context.Context, tier string, now time.Time) ([]progression.CohortOccupancy, error) {
	var rows []cohortRow
	err := r.db.WithContext(ctx).
		Table("league_cohorts").
		Select("league_cohorts.*, COUNT(league_members.id) AS member_count").
		Joins("LEFT JOIN league_members ON league_members.cohort_id = league_cohorts.id").
		Where("league_cohorts.tier = ? AND league_cohorts.closed_at IS NULL AND league_cohorts.end_date >= ?", tier, now).
		Group("league_cohorts.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]progression.CohortOccupancy, 0, len(rows))
	for _, row := range rows {
		out = append(out, progression.CohortOccupancy{Cohort: row.LeagueCohort, Members: row.MemberCount})
	}
	return out, nil
}

func (r *leagueRepository) LockCohort(ctx context.Context, id uuid.UUID) (*entity.LeagueCohort, error) {
	var cohort entity.LeagueCohort
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&cohort).Error; err != nil {
		return nil, err
	}
	return &cohort, nil
}

func (r *leagueRepository) CreateCohort(ctx context.Context, cohort *entity.LeagueCohort) error {
	return r.db.WithContext(ctx).Create(cohort).Error
}

func (r *leagueRepository) CountMembers(ctx context.Context, cohortID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.LeagueMember{}).
		Where("cohort_id = ?", cohortID).
		Count(&count).Error
	return count, err
}

func (r *leagueRepository) ListMembers(ctx context.Context, cohortID uuid.UUID) ([]entity.LeagueMember, error) {
	var members []entity.LeagueMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("cohort_id = ?", cohortID).
		Order("position ASC, joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *leagueRepository) FindActiveMembership(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.LeagueMember, *entity.LeagueCohort, error) {
	var member entity.LeagueMember
	err := r.db.WithContext(ctx).
		Joins("JOIN league_cohorts ON league_cohorts.id = league_members.cohort_id").
		Where("league_members.user_id = ? AND league_cohorts.closed_at IS NULL AND league_cohorts.end_date >= ?", userID, now).
		Order("league_cohorts.start_date DESC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var cohort entity.LeagueCohort
	if err := r.db.WithContext(ctx).Where("id = ?", member.CohortID).First(&cohort).Error; err != nil {
		return nil, nil, err
	}
	return &member, &cohort, nil
}

func (r *leagueRepository) CreateMember(ctx context.Context, member *entity.LeagueMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *leagueRepository) LockUser(ctx context.Context, userID uuid.UUID) error {
	var user entity.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Limit(1).
		Find(&user).Error
}

func (r *leagueRepository) AddPoints(ctx context.Context, memberID uuid.UUID, points int) error {
	return r.db.WithContext(ctx).
		Model(&entity.LeagueMember{}).
		Where("id = ?", memberID).
		Update("points", gorm.Expr("points + ?", points)).Error
}

func (r *leagueRepository) UpdatePositions(ctx context.Context, members []entity.LeagueMember) error {
	for _, m := range members {
		if err := r.db.WithContext(ctx).
			Model(&entity.LeagueMember{}).
			Where("id = ?", m.ID).
			Update("position", m.Position).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *leagueRepository) FindExpiredCohorts(ctx context.Context, now time.Time, limit int) ([]entity.LeagueCohort, error) {
	var cohorts []entity.LeagueCohort
	err := r.db.WithContext(ctx).
		Where("closed_at IS NULL AND end_date < ?", now).
		Order("end_date ASC").
		Limit(limit).
		Find(&cohorts).Error
	return cohorts, err
}

func (r *leagueRepository) CloseCohort(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.LeagueCohort{}).
		Where("id = ?", id).
		Update("closed_at", at).Error
}

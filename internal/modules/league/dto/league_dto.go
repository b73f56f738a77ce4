package dto

import (
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/internal/progression"
	"github.com/google/uuid"
)

type JoinLeagueRequest struct {
	Tier string `json:"tier" binding:"omitempty,oneof=bronze silver gold platinum diamond"`
}

type CohortResponse struct {
	ID          uuid.UUID `json:"id"`
	Tier        string    `json:"tier"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	MaxMembers  int       `json:"max_members"`
	MemberCount int       `json:"member_count"`
}

type StandingResponse struct {
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Points          int       `json:"points"`
	Position        int       `json:"position"`
	IsPromotionZone bool      `json:"is_promotion_zone"`
	IsDemotionZone  bool      `json:"is_demotion_zone"`
	IsCurrentUser   bool      `json:"is_current_user"`
}

type LeagueStateResponse struct {
	CurrentCohort   CohortResponse     `json:"current_cohort"`
	Members         []StandingResponse `json:"members"`
	UserRank        int                `json:"user_rank"`
	IsPromotionZone bool               `json:"is_promotion_zone"`
	IsDemotionZone  bool               `json:"is_demotion_zone"`
}

type RecomputeResponse struct {
	CohortID  uuid.UUID          `json:"cohort_id"`
	Updated   int                `json:"updated"`
	Standings []StandingResponse `json:"standings"`
}

func NewStandingResponses(standings []progression.Standing, currentUser uuid.UUID) []StandingResponse {
	out := make([]StandingResponse, 0, len(standings))
	for _, s := range standings {
		var username string
		if s.Member.User != nil {
			username = s.Member.User.Username
		}
		out = append(out, StandingResponse{
			UserID:          s.Member.UserID,
			Username:        username,
			Points:          s.Member.Points,
			Position:        s.Member.Position,
			IsPromotionZone: s.IsPromotionZone,
			IsDemotionZone:  s.IsDemotionZone,
			IsCurrentUser:   s.Member.UserID == currentUser,
		})
	}
	return out
}

// NewLeagueStateResponse builds the view of cohort as seen by userID.
func NewLeagueStateResponse(cohort entity.LeagueCohort, standings []progression.Standing, userID uuid.UUID) *LeagueStateResponse {
	resp := &LeagueStateResponse{
		CurrentCohort: CohortResponse{
			ID:          cohort.ID,
			Tier:        cohort.Tier,
			StartDate:   cohort.StartDate,
			EndDate:     cohort.EndDate,
			MaxMembers:  cohort.MaxMembers,
			MemberCount: len(standings),
		},
		Members: NewStandingResponses(standings, userID),
	}
	for _, s := range standings {
		if s.Member.UserID == userID {
			resp.UserRank = s.Member.Position
			resp.IsPromotionZone = s.IsPromotionZone
			resp.IsDemotionZone = s.IsDemotionZone
			break
		}
	}
	return resp
}

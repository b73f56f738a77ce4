package progression

import (
	"bytes"
	"math"
	"sort"
	"time"

	"anoa.com/fitquest/internal/entity"
)

const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierDiamond  = "diamond"
)

var tierOrder = []string{TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}

const (
	SeasonPromoted = "promoted"
	SeasonDemoted  = "demoted"
	SeasonStayed   = "stayed"
)

type LeagueSettings struct {
	CohortSize         int
	PromotionThreshold int
	DemotionThreshold  int
	SeasonDays         int
	WeekStart          time.Weekday
}

func DefaultLeagueSettings() LeagueSettings {
	return LeagueSettings{
		CohortSize:         30,
		PromotionThreshold: 5,
		DemotionThreshold:  25,
		SeasonDays:         7,
		WeekStart:          time.Sunday,
	}
}

// Standing is a member with its freshly computed position.
type Standing struct {
	Member           entity.LeagueMember `json:"member"`
	PreviousPosition int                 `json:"previous_position"`
	Changed          bool                `json:"changed"`
	IsPromotionZone  bool                `json:"is_promotion_zone"`
	IsDemotionZone   bool                `json:"is_demotion_zone"`
}

// CohortOccupancy pairs a cohort with its current member count.
type CohortOccupancy struct {
	Cohort  entity.LeagueCohort
	Members int
}

// SeasonOutcome is where a member lands after a cohort closes.
type SeasonOutcome struct {
	Member   entity.LeagueMember `json:"member"`
	FromTier string              `json:"from_tier"`
	ToTier   string              `json:"to_tier"`
	Result   string              `json:"result"`
}

func ValidTier(tier string) bool {
	return tierIndex(tier) >= 0
}

func ValidateTier(tier string) error {
	if !ValidTier(tier) {
		return &ValidationError{Field: "tier", Reason: "must be one of bronze, silver, gold, platinum, diamond", Err: ErrInvalidTier}
	}
	return nil
}

func tierIndex(tier string) int {
	for i, t := range tierOrder {
		if t == tier {
			return i
		}
	}
	return -1
}

// NextTier is the tier above, or tier itself at the top.
func NextTier(tier string) string {
	i := tierIndex(tier)
	if i < 0 || i == len(tierOrder)-1 {
		return tier
	}
	return tierOrder[i+1]
}

// PreviousTier is the tier below, or tier itself at the bottom.
func PreviousTier(tier string) string {
	i := tierIndex(tier)
	if i <= 0 {
		return tier
	}
	return tierOrder[i-1]
}

// rankLess orders by points desc, then earlier join, then id for a total order.
func rankLess(a, b entity.LeagueMember) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// ZoneFor classifies a position against the promotion and demotion thresholds.
func ZoneFor(position int, settings LeagueSettings) (promotion, demotion bool) {
	return position <= settings.PromotionThreshold, position >= settings.DemotionThreshold
}

// RankMembers assigns positions 1..N from the current points. The result depends only
// on the members' points, join times and ids, never on input order or stored positions.
func RankMembers(members []entity.LeagueMember, settings LeagueSettings) []Standing {
	sorted := make([]entity.LeagueMember, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rankLess(sorted[i], sorted[j])
	})

	standings := make([]Standing, len(sorted))
	for i, m := range sorted {
		position := i + 1
		previous := m.Position
		m.Position = position
		promo, demo := ZoneFor(position, settings)
		standings[i] = Standing{
			Member:           m,
			PreviousPosition: previous,
			Changed:          previous != position,
			IsPromotionZone:  promo,
			IsDemotionZone:   demo,
		}
	}
	return standings
}

// ChangedMembers returns only the rows whose position moved.
func ChangedMembers(standings []Standing) []entity.LeagueMember {
	var changed []entity.LeagueMember
	for _, s := range standings {
		if s.Changed {
			changed = append(changed, s.Member)
		}
	}
	return changed
}

// SelectCohort picks an open, non-full cohort of tier at now. The fullest one wins so
// cohorts fill before new ones open; ties go to the earliest start.
func SelectCohort(candidates []CohortOccupancy, tier string, now time.Time) (entity.LeagueCohort, bool) {
	var (
		best  CohortOccupancy
		found bool
	)
	for _, c := range candidates {
		if c.Cohort.Tier != tier || !c.Cohort.IsOpen(now) || c.Members >= c.Cohort.MaxMembers {
			continue
		}
		if !found ||
			c.Members > best.Members ||
			(c.Members == best.Members && c.Cohort.StartDate.Before(best.Cohort.StartDate)) {
			best = c
			found = true
		}
	}
	return best.Cohort, found
}

// WeekStart returns midnight in loc of the most recent settings.WeekStart day.
func WeekStart(now time.Time, loc *time.Location, weekday time.Weekday) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	offset := (int(local.Weekday()) - int(weekday) + 7) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// NewCohort builds the cohort a tier opens at now, aligned to the week start. The season
// ends SeasonDays calendar days later at local midnight.
func NewCohort(tier string, now time.Time, loc *time.Location, settings LeagueSettings) (entity.LeagueCohort, error) {
	if err := ValidateTier(tier); err != nil {
		return entity.LeagueCohort{}, err
	}
	start := WeekStart(now, loc, settings.WeekStart)
	return entity.LeagueCohort{
		Tier:       tier,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, settings.SeasonDays),
		MaxMembers: settings.CohortSize,
	}, nil
}

// SeasonOutcomes moves the promotion zone up a tier and the demotion zone down one.
// A member in both zones (tiny cohorts) is promoted.
func SeasonOutcomes(tier string, standings []Standing) []SeasonOutcome {
	outcomes := make([]SeasonOutcome, 0, len(standings))
	for _, s := range standings {
		out := SeasonOutcome{Member: s.Member, FromTier: tier, ToTier: tier, Result: SeasonStayed}
		switch {
		case s.IsPromotionZone && NextTier(tier) != tier:
			out.ToTier = NextTier(tier)
			out.Result = SeasonPromoted
		case s.IsDemotionZone && !s.IsPromotionZone && PreviousTier(tier) != tier:
			out.ToTier = PreviousTier(tier)
			out.Result = SeasonDemoted
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// LeaguePointsForXP converts an XP award to league points.
func LeaguePointsForXP(xp float64) int {
	if math.IsNaN(xp) || xp <= 0 {
		return 0
	}
	return int(math.Round(xp))
}

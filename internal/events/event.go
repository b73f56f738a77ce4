package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	Channel       = "progression:events"
	DeadLetterKey = "progression:events:dead"
)

const (
	TypeWorkoutCompleted = "workout_completed"
	TypeActivity         = "activity"
	TypeLeagueChanged    = "league_changed"
)

// Event is one message on the change feed. Delivery is at least once; ID is the dedupe key.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	CohortID   uuid.UUID       `json:"cohort_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Attempts   int             `json:"attempts,omitempty"`
}

// New builds an event with a fresh id. payload may be nil.
func New(eventType string, userID, cohortID uuid.UUID, payload any) (Event, error) {
	e := Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		CohortID:   cohortID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		e.Payload = raw
	}
	return e, nil
}

// Key is the entity whose events must be applied in order.
func (e Event) Key() string {
	if e.Type == TypeLeagueChanged {
		return "cohort:" + e.CohortID.String()
	}
	return "user:" + e.UserID.String()
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

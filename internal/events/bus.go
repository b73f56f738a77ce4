package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/fitquest/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrBusUnavailable = errors.New("event bus unavailable")

// Bus publishes events to the Redis feed channel.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil || b.rdb == nil {
		return ErrBusUnavailable
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe streams decoded feed events until ctx ends. Undecodable messages are logged
// and dropped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	if b == nil || b.rdb == nil {
		return nil, ErrBusUnavailable
	}

	pubsub := b.rdb.Subscribe(ctx, Channel)
	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					logger.Logger.Warn("event_decode_failed", zap.Error(err))
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Store keeps dedupe markers and the dead letter list.
type Store interface {
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
	PushDead(ctx context.Context, e Event) error
	PopDead(ctx context.Context) (*Event, error)
}

type redisStore struct {
	rdb     *redis.Client
	seenTTL time.Duration
}

func NewRedisStore(rdb *redis.Client, seenTTL time.Duration) Store {
	return &redisStore{rdb: rdb, seenTTL: seenTTL}
}

func seenKey(id uuid.UUID) string {
	return "event:seen:" + id.String()
}

func (s *redisStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.rdb.SetNX(ctx, seenKey(id), 1, s.seenTTL).Result()
}

func (s *redisStore) Release(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, seenKey(id)).Err()
}

func (s *redisStore) PushDead(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, DeadLetterKey, payload).Err()
}

// PopDead returns nil, nil when the list is empty.
func (s *redisStore) PopDead(ctx context.Context) (*Event, error) {
	raw, err := s.rdb.LPop(ctx, DeadLetterKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

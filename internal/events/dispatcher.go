package events

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Handler func(ctx context.Context, e Event) error

const (
	defaultMaxAttempts = 3
	shardBuffer        = 64
	recentEvents       = 4096
)

// Dispatcher routes feed events to handlers. Events that share a Key land on the same
// shard and are handled in arrival order; shards run in parallel.
type Dispatcher struct {
	handlers    map[string]Handler
	store       Store
	publisher   Publisher
	recent      *lru.Cache
	shards      int
	maxAttempts int
	backoff     time.Duration
}

func NewDispatcher(store Store, publisher Publisher, shards int) *Dispatcher {
	if shards < 1 {
		shards = 1
	}
	// lru.New only fails for a non-positive size.
	recent, _ := lru.New(recentEvents)
	return &Dispatcher{
		handlers:    make(map[string]Handler),
		store:       store,
		publisher:   publisher,
		recent:      recent,
		shards:      shards,
		maxAttempts: defaultMaxAttempts,
		backoff:     200 * time.Millisecond,
	}
}

// Handle registers h for an event type. Not safe to call once Consume has started.
func (d *Dispatcher) Handle(eventType string, h Handler) {
	d.handlers[eventType] = h
}

func (d *Dispatcher) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(d.shards))
}

// Consume drains in until it closes or ctx ends.
func (d *Dispatcher) Consume(ctx context.Context, in <-chan Event) error {
	g, gctx := errgroup.WithContext(ctx)

	queues := make([]chan Event, d.shards)
	for i := range queues {
		q := make(chan Event, shardBuffer)
		queues[i] = q
		g.Go(func() error {
			for e := range q {
				if err := d.Dispatch(gctx, e); err != nil {
					logger.Logger.Error("event_dispatch_failed",
						zap.String("event_id", e.ID.String()),
						zap.String("type", e.Type),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case e, ok := <-in:
				if !ok {
					return nil
				}
				select {
				case queues[d.shardFor(e.Key())] <- e:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// Dispatch runs the handler for one event with dedupe and retries. Ids handled by this
// process are remembered locally so redeliveries skip the store round trip. After the
// last failed attempt the event goes to the dead letter list.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	h, ok := d.handlers[e.Type]
	if !ok {
		metrics.EventsProcessed.WithLabelValues(e.Type, "unhandled").Inc()
		return nil
	}

	if d.recent.Contains(e.ID) {
		metrics.EventsProcessed.WithLabelValues(e.Type, "duplicate").Inc()
		return nil
	}

	if d.store != nil {
		claimed, err := d.store.Claim(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("claim event: %w", err)
		}
		if !claimed {
			metrics.EventsProcessed.WithLabelValues(e.Type, "duplicate").Inc()
			return nil
		}
	}
	d.recent.Add(e.ID, struct{}{})

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		e.Attempts = attempt
		if lastErr = h(ctx, e); lastErr == nil {
			metrics.EventsProcessed.WithLabelValues(e.Type, "ok").Inc()
			return nil
		}
		logger.Logger.Warn("event_handler_failed",
			zap.String("event_id", e.ID.String()),
			zap.String("type", e.Type),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				metrics.EventsProcessed.WithLabelValues(e.Type, "interrupted").Inc()
				return errors.Join(ctx.Err(), d.deadLetter(ctx, e))
			case <-time.After(d.backoff * time.Duration(attempt)):
			}
		}
	}

	metrics.EventsProcessed.WithLabelValues(e.Type, "dead").Inc()
	if err := d.deadLetter(ctx, e); err != nil {
		return errors.Join(lastErr, err)
	}
	if d.store == nil {
		return lastErr
	}
	return nil
}

// deadLetter frees the event id and parks the event for replay, ignoring cancellation of ctx.
func (d *Dispatcher) deadLetter(ctx context.Context, e Event) error {
	d.recent.Remove(e.ID)
	if d.store == nil {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	if err := d.store.Release(ctx, e.ID); err != nil {
		logger.Logger.Warn("event_release_failed", zap.String("event_id", e.ID.String()), zap.Error(err))
	}
	if err := d.store.PushDead(ctx, e); err != nil {
		return fmt.Errorf("dead letter: %w", err)
	}
	return nil
}

// ReplayDeadLetters republishes up to limit dead events onto the feed.
func (d *Dispatcher) ReplayDeadLetters(ctx context.Context, limit int) (int, error) {
	if d.store == nil || d.publisher == nil {
		return 0, ErrBusUnavailable
	}

	replayed := 0
	for replayed < limit {
		e, err := d.store.PopDead(ctx)
		if err != nil {
			return replayed, err
		}
		if e == nil {
			break
		}
		e.Attempts = 0
		if err := d.publisher.Publish(ctx, *e); err != nil {
			// put it back so the next run sees it
			if pushErr := d.store.PushDead(ctx, *e); pushErr != nil {
				return replayed, errors.Join(err, pushErr)
			}
			return replayed, err
		}
		replayed++
	}
	return replayed, nil
}

// Run subscribes to the bus and consumes until ctx ends.
func (d *Dispatcher) Run(ctx context.Context, bus *Bus) error {
	in, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	logger.Logger.Info("event_dispatcher_started", zap.Int("shards", d.shards))
	return d.Consume(ctx, in)
}

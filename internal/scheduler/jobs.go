package scheduler

import (
	"context"

	"anoa.com/fitquest/pkg/logger"
	"go.uber.org/zap"
)

const (
	JobStreakReminder   = "streak-reminder"
	JobSeasonRollover   = "season-rollover"
	JobDeadLetterReplay = "dead-letter-replay"

	deadLetterReplayLimit = 500
)

// CountFunc is a batch operation that reports how many items it handled.
type CountFunc func(ctx context.Context) (int, error)

type countJob struct {
	name     string
	schedule string
	fn       CountFunc
}

func (j *countJob) Name() string     { return j.name }
func (j *countJob) Schedule() string { return j.schedule }

func (j *countJob) Execute(ctx context.Context) error {
	n, err := j.fn(ctx)
	if err != nil {
		return err
	}
	logger.Logger.Info("job_items_processed", zap.String("job", j.name), zap.Int("count", n))
	return nil
}

// NewStreakReminderJob notifies users whose streak ends unless they train today.
func NewStreakReminderJob(schedule string, remind CountFunc) Job {
	return &countJob{name: JobStreakReminder, schedule: schedule, fn: remind}
}

// NewSeasonRolloverJob closes finished league weeks.
func NewSeasonRolloverJob(schedule string, rollover CountFunc) Job {
	return &countJob{name: JobSeasonRollover, schedule: schedule, fn: rollover}
}

// NewDeadLetterReplayJob puts failed events back on the feed.
func NewDeadLetterReplayJob(schedule string, replay func(ctx context.Context, limit int) (int, error)) Job {
	return &countJob{
		name:     JobDeadLetterReplay,
		schedule: schedule,
		fn: func(ctx context.Context) (int, error) {
			return replay(ctx, deadLetterReplayLimit)
		},
	}
}

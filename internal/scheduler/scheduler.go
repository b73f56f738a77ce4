package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/fitquest/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrJobNotFound = errors.New("job not found")

const defaultRunTimeout = 10 * time.Minute

// Job is a unit of background work. An empty Schedule registers it for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Execute(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedule. A run that is still going when
// its next tick fires is skipped.
type Scheduler struct {
	cron       *cron.Cron
	jobs       []Job
	runTimeout time.Duration
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{l: logger.Logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runTimeout: defaultRunTimeout,
	}
}

// Register adds job and schedules it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	if spec := job.Schedule(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
		logger.Logger.Info("job_scheduled", zap.String("job", job.Name()), zap.String("cron", spec))
	} else {
		logger.Logger.Info("job_registered_on_demand", zap.String("job", job.Name()))
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		logger.Logger.Error("job_failed",
			zap.String("job", job.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	logger.Logger.Info("job_completed",
		zap.String("job", job.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Logger.Info("scheduler_started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	logger.Logger.Info("scheduler_stopped")
}

// RunByName executes a registered job now, on the caller's goroutine.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

func (s *Scheduler) Registered() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

// cronLogger sends the cron runtime's own messages to zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

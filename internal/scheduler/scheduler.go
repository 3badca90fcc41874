// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
)

// Job is a named task with its own run cadence.
type Job struct {
	Name string
	// Next returns the first run time strictly after now.
	Next func(now time.Time) time.Time
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on their cadence. A job run is guarded by a lock so
// that only one instance of the service runs a given job at a time.
type Scheduler struct {
	clock   clock.Clock
	locker  Locker
	lockTTL time.Duration
	jobs    map[string]Job
	order   []string
}

func New(clk clock.Clock, locker Locker, lockTTL time.Duration) *Scheduler {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Scheduler{
		clock:   clk,
		locker:  locker,
		lockTTL: lockTTL,
		jobs:    make(map[string]Job),
	}
}

func (s *Scheduler) Add(job Job) {
	if _, exists := s.jobs[job.Name]; !exists {
		s.order = append(s.order, job.Name)
	}
	s.jobs[job.Name] = job
}

// Jobs lists the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.order...)
}

// Start runs every job until ctx is cancelled. Job failures are logged and
// never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range s.order {
		job := s.jobs[name]
		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}
	logrus.WithField("jobs", s.order).Info("Scheduler started")
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	for {
		now := s.clock.Now()
		next := job.Next(now)
		logrus.WithFields(logrus.Fields{
			"job":      job.Name,
			"next_run": next,
		}).Debug("Job scheduled")

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}

		if err := s.run(ctx, job); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			logrus.WithError(err).WithField("job", job.Name).Error("Scheduled job failed")
		}
	}
}

// Trigger runs a job immediately under the same lock the schedule uses.
// A run already in progress elsewhere is reported as a conflict.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return apperrors.NotFound("Job")
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	return s.Exclusive(ctx, job.Name, job.Run)
}

// Exclusive runs fn while holding the named job's lock. Handlers use it to
// run a sweep on demand and still read its result.
func (s *Scheduler) Exclusive(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	release, acquired, err := s.locker.Acquire(ctx, lockKey(name), s.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire %s lock: %w", name, err)
	}
	if !acquired {
		logrus.WithField("job", name).Debug("Job already running elsewhere; skipping")
		return apperrors.Conflict("job %s is already running", name)
	}
	defer release()

	start := s.clock.Now()
	err = fn(ctx)
	fields := logrus.Fields{
		"job":      name,
		"duration": s.clock.Since(start).String(),
	}
	if err != nil {
		logrus.WithError(err).WithFields(fields).Warn("Job finished with errors")
		return err
	}
	logrus.WithFields(fields).Info("Job finished")
	return nil
}

func lockKey(job string) string {
	return "firenoc:lock:job:" + job
}

// Hourly runs at the top of every hour.
func Hourly(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// DailyAt runs once a day at hour:00 in loc.
func DailyAt(hour int, loc *time.Location) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		local := now.In(loc)
		next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
		if !next.After(local) {
			next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
		}
		return next
	}
}

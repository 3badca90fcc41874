// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	testclock "k8s.io/utils/clock/testing"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/services"
)

func TestHourly(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 30, 15, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC), Hourly(now))

	onTheHour := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), Hourly(onTheHour))
}

func TestDailyAt(t *testing.T) {
	next := DailyAt(9, time.UTC)

	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), next(time.Date(2025, 6, 2, 8, 59, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), next(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), next(time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)))
}

func TestDailyAtHonoursLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	next := DailyAt(0, kolkata)

	// 20:00 UTC is 01:30 the next day in IST, so midnight IST is 22.5h away.
	got := next(time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, kolkata), got)
	assert.Equal(t, 22*time.Hour+30*time.Minute, got.Sub(time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)))
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewLocalLocker()

	release, ok, err := locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release()

	_, ok, err = locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

type SchedulerTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *testclock.FakeClock
	locker *LocalLocker
	sched  *Scheduler
}

func (s *SchedulerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = testclock.NewFakeClock(time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC))
	s.locker = NewLocalLocker()
	s.sched = New(s.clock, s.locker, time.Minute)
}

func (s *SchedulerTestSuite) TestTriggerRunsJob() {
	var runs atomic.Int32
	s.sched.Add(Job{Name: "count", Next: Hourly, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	s.Require().NoError(s.sched.Trigger(s.ctx, "count"))
	s.EqualValues(1, runs.Load())
}

func (s *SchedulerTestSuite) TestTriggerUnknownJob() {
	err := s.sched.Trigger(s.ctx, "missing")
	s.True(errors.Is(err, apperrors.ErrNotFound))
}

func (s *SchedulerTestSuite) TestTriggerWhileLockedConflicts() {
	var runs atomic.Int32
	s.sched.Add(Job{Name: "busy", Next: Hourly, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	release, ok, err := s.locker.Acquire(s.ctx, lockKey("busy"), time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	err = s.sched.Trigger(s.ctx, "busy")
	s.True(errors.Is(err, apperrors.ErrConflict))
	s.Zero(runs.Load())

	release()
	s.Require().NoError(s.sched.Trigger(s.ctx, "busy"))
	s.EqualValues(1, runs.Load())
}

func (s *SchedulerTestSuite) TestTriggerReturnsJobError() {
	boom := errors.New("boom")
	s.sched.Add(Job{Name: "fail", Next: Hourly, Run: func(context.Context) error { return boom }})

	s.ErrorIs(s.sched.Trigger(s.ctx, "fail"), boom)

	// The lock is released after a failed run.
	_, ok, err := s.locker.Acquire(s.ctx, lockKey("fail"), time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *SchedulerTestSuite) TestStartRunsOnSchedule() {
	ran := make(chan time.Time, 4)
	s.sched.Add(Job{Name: "tick", Next: Hourly, Run: func(context.Context) error {
		ran <- s.clock.Now()
		return errors.New("failures do not stop the loop")
	}})

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.sched.Start(ctx) }()

	s.Require().Eventually(s.clock.HasWaiters, time.Second, time.Millisecond)
	s.clock.Step(29 * time.Minute)
	s.Never(func() bool { return len(ran) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	s.clock.Step(time.Minute)
	select {
	case at := <-ran:
		s.Equal(time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC), at)
	case <-time.After(time.Second):
		s.FailNow("job did not run")
	}

	s.Require().Eventually(s.clock.HasWaiters, time.Second, time.Millisecond)
	s.clock.Step(time.Hour)
	select {
	case at := <-ran:
		s.Equal(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), at)
	case <-time.After(time.Second):
		s.FailNow("job did not run again")
	}

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.FailNow("scheduler did not stop")
	}
}

type fakeSweeper struct {
	overdue, expiry, reminders atomic.Int32
}

func (f *fakeSweeper) CheckOverdueApplications(context.Context) (int, error) {
	f.overdue.Add(1)
	return 0, nil
}

func (f *fakeSweeper) ExpireDocuments(context.Context) (services.ExpiryResult, error) {
	f.expiry.Add(1)
	return services.ExpiryResult{}, nil
}

func (f *fakeSweeper) SendRenewalReminders(context.Context) (int, error) {
	f.reminders.Add(1)
	return 0, errors.New("partial failure")
}

func (s *SchedulerTestSuite) TestRegisterSweeps() {
	sweeper := &fakeSweeper{}
	s.Require().NoError(RegisterSweeps(s.sched, sweeper, config.SchedulerConfig{
		Timezone:          "UTC",
		ExpirySweepHour:   0,
		ReminderSweepHour: 9,
	}))

	s.Equal([]string{services.SweepOverdue, services.SweepExpiry, services.SweepReminders}, s.sched.Jobs())

	s.NoError(s.sched.Trigger(s.ctx, services.SweepOverdue))
	s.NoError(s.sched.Trigger(s.ctx, services.SweepExpiry))
	s.Error(s.sched.Trigger(s.ctx, services.SweepReminders))
	s.EqualValues(1, sweeper.overdue.Load())
	s.EqualValues(1, sweeper.expiry.Load())
	s.EqualValues(1, sweeper.reminders.Load())

	s.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), s.sched.jobs[services.SweepExpiry].Next(s.clock.Now()))
	s.Equal(time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), s.sched.jobs[services.SweepReminders].Next(s.clock.Now()))
}

func (s *SchedulerTestSuite) TestRegisterSweepsRejectsBadTimezone() {
	err := RegisterSweeps(s.sched, &fakeSweeper{}, config.SchedulerConfig{Timezone: "Mars/Olympus"})
	s.Error(err)
	s.Empty(s.sched.Jobs())
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func TestExclusiveSharesJobLock(t *testing.T) {
	ctx := context.Background()
	locker := NewLocalLocker()
	sched := New(testclock.NewFakeClock(time.Now()), locker, time.Minute)

	inner := errors.New("inner")
	err := sched.Exclusive(ctx, "expiry", func(ctx context.Context) error {
		nested := sched.Exclusive(ctx, "expiry", func(context.Context) error { return nil })
		assert.True(t, errors.Is(nested, apperrors.ErrConflict))
		return inner
	})
	assert.ErrorIs(t, err, inner)

	assert.NoError(t, sched.Exclusive(ctx, "expiry", func(context.Context) error { return nil }))
}

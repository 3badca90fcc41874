// internal/scheduler/sweeps.go
package scheduler

import (
	"context"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/services"
)

// Sweeper is the set of periodic workflow checks.
type Sweeper interface {
	CheckOverdueApplications(ctx context.Context) (int, error)
	ExpireDocuments(ctx context.Context) (services.ExpiryResult, error)
	SendRenewalReminders(ctx context.Context) (int, error)
}

// RegisterSweeps adds the overdue check hourly, the expiry sweep daily at
// ExpirySweepHour and renewal reminders daily at ReminderSweepHour.
func RegisterSweeps(s *Scheduler, sweeper Sweeper, cfg config.SchedulerConfig) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	s.Add(Job{
		Name: services.SweepOverdue,
		Next: Hourly,
		Run: func(ctx context.Context) error {
			_, err := sweeper.CheckOverdueApplications(ctx)
			return err
		},
	})
	s.Add(Job{
		Name: services.SweepExpiry,
		Next: DailyAt(cfg.ExpirySweepHour, loc),
		Run: func(ctx context.Context) error {
			_, err := sweeper.ExpireDocuments(ctx)
			return err
		},
	})
	s.Add(Job{
		Name: services.SweepReminders,
		Next: DailyAt(cfg.ReminderSweepHour, loc),
		Run: func(ctx context.Context) error {
			_, err := sweeper.SendRenewalReminders(ctx)
			return err
		},
	})
	return nil
}

// internal/services/sweeper_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
)

// Sweep names, used as metric labels and scheduler job names.
const (
	SweepOverdue   = "overdue"
	SweepExpiry    = "expiry"
	SweepReminders = "reminders"
)

// SweeperService runs the periodic deadline and expiry checks. Every sweep
// selects only records not yet in the target state, so re-running a sweep
// changes nothing that an earlier run already handled.
type SweeperService struct {
	Deps
}

// ExpiryResult counts the records moved to expired by one expiry sweep.
type ExpiryResult struct {
	Certificates int64 `json:"certificates"`
	Licenses     int64 `json:"licenses"`
}

var inspectionStageStatuses = []models.ApplicationStatus{
	models.ApplicationStatusSubmitted,
	models.ApplicationStatusUnderReview,
	models.ApplicationStatusInspectionScheduled,
}

func NewSweeperService(deps Deps) *SweeperService {
	return &SweeperService{Deps: deps}
}

// CheckOverdueApplications flags applications whose inspection or
// follow-up deadline has passed and notifies each applicant once.
// A failure on one record is logged and the sweep moves on.
func (s *SweeperService) CheckOverdueApplications(ctx context.Context) (int, error) {
	start := time.Now()
	defer s.Metrics.ObserveSweep(SweepOverdue, start)

	now := s.now()

	inspectionDue, _, err := s.Store.FindApplications(ctx, store.ApplicationFilter{
		Statuses:            inspectionStageStatuses,
		IsOverdue:           store.Bool(false),
		InspectionDueBefore: &now,
	}, store.All)
	if err != nil {
		return 0, err
	}

	followUpDue, _, err := s.Store.FindApplications(ctx, store.ApplicationFilter{
		Statuses:          []models.ApplicationStatus{models.ApplicationStatusFollowUpRequired},
		IsOverdue:         store.Bool(false),
		FollowUpDueBefore: &now,
	}, store.All)
	if err != nil {
		return 0, err
	}

	seen := make(map[uuid.UUID]bool, len(inspectionDue)+len(followUpDue))
	processed := 0
	for _, candidate := range append(inspectionDue, followUpDue...) {
		if seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true

		app, err := s.Store.UpdateApplication(ctx, candidate.ID, func(a *models.Application) error {
			if a.IsOverdue || !breached(a, now) {
				return errSkip
			}
			a.IsOverdue = true
			return nil
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			logrus.WithError(err).WithField("application_id", candidate.ID).Error("Failed to flag overdue application")
			continue
		}

		processed++
		s.Notifier.Overdue(ctx, app)
	}

	if processed > 0 {
		logrus.WithField("count", processed).Info("Flagged overdue applications")
	}
	s.Metrics.AddOverdue(processed)
	return processed, nil
}

// breached re-checks the sweep predicate against the locked record.
func breached(a *models.Application, now time.Time) bool {
	switch a.Status {
	case models.ApplicationStatusSubmitted, models.ApplicationStatusUnderReview, models.ApplicationStatusInspectionScheduled:
		return a.Deadlines.Inspection != nil && a.Deadlines.Inspection.Before(now)
	case models.ApplicationStatusFollowUpRequired:
		return a.Deadlines.FollowUp != nil && a.Deadlines.FollowUp.Before(now)
	default:
		return false
	}
}

// ExpireDocuments moves every active certificate and license past its
// validity to expired. No notifications are sent for plain expiry.
func (s *SweeperService) ExpireDocuments(ctx context.Context) (ExpiryResult, error) {
	start := time.Now()
	defer s.Metrics.ObserveSweep(SweepExpiry, start)

	now := s.now()
	var (
		result ExpiryResult
		errs   []error
	)

	certificates, err := s.Store.ExpireCertificates(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("Failed to expire NOC certificates")
		errs = append(errs, err)
	}
	result.Certificates = certificates

	licenses, err := s.Store.ExpireLicenses(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("Failed to expire licenses")
		errs = append(errs, err)
	}
	result.Licenses = licenses

	if result.Certificates > 0 || result.Licenses > 0 {
		logrus.WithFields(logrus.Fields{
			"certificates": result.Certificates,
			"licenses":     result.Licenses,
		}).Info("Expired documents")
	}
	s.Metrics.AddCertificatesExpired(result.Certificates)
	s.Metrics.AddLicensesExpired(result.Licenses)
	return result, errors.Join(errs...)
}

// SendRenewalReminders notifies licensees whose license falls inside the
// reminder window. Each reminder gets one dispatch attempt and is marked
// sent afterwards whatever the outcome, so a crash between the two can
// only repeat a reminder.
func (s *SweeperService) SendRenewalReminders(ctx context.Context) (int, error) {
	start := time.Now()
	defer s.Metrics.ObserveSweep(SweepReminders, start)

	now := s.now()
	window := s.Workflow.LicenseRenewalReminderDays

	licenses, _, err := s.Store.FindLicenses(ctx, store.LicenseFilter{
		Status:       models.LicenseStatusActive,
		ReminderSent: store.Bool(false),
	}, store.All)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range licenses {
		license := &licenses[i]
		if !license.NeedsRenewalReminder(now, window) {
			continue
		}

		if err := s.Notifier.RenewalReminder(ctx, license, license.DaysUntilExpiry(now)); err != nil {
			logrus.WithError(err).WithField("license_number", license.LicenseNumber).Warn("Renewal reminder delivery incomplete")
		}

		_, err := s.Store.UpdateLicense(ctx, license.ID, func(l *models.License) error {
			if l.ReminderSent {
				return errSkip
			}
			l.ReminderSent = true
			return nil
		})
		if err != nil && !errors.Is(err, errSkip) {
			logrus.WithError(err).WithField("license_number", license.LicenseNumber).Error("Failed to mark renewal reminder sent")
			continue
		}

		sent++
		s.Metrics.IncReminderSent()
	}

	if sent > 0 {
		logrus.WithField("count", sent).Info("Sent license renewal reminders")
	}
	return sent, nil
}

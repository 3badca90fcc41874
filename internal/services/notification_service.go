// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
)

const defaultNotifyTimeout = 5 * time.Second

// NotificationService turns workflow events into notifications. Delivery
// failures are logged and never undo the workflow change that caused them.
type NotificationService struct {
	dispatcher notify.Dispatcher
	timeout    time.Duration
}

func NewNotificationService(dispatcher notify.Dispatcher, timeout time.Duration) *NotificationService {
	if dispatcher == nil {
		dispatcher = notify.Nop
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &NotificationService{dispatcher: dispatcher, timeout: timeout}
}

// Application notifications
func (s *NotificationService) ApplicationSubmitted(ctx context.Context, app *models.Application) {
	s.send(ctx, notify.ToUser(app.ApplicantID, notify.KindApplicationSubmitted,
		"Application Submitted",
		fmt.Sprintf("Your application %s has been submitted successfully.", app.ApplicationNumber),
	).About("application", app.ID).With(applicationData(app)))

	s.send(ctx, notify.ToStaff(notify.KindNewApplication,
		"New Application",
		fmt.Sprintf("New %s application %s received for %s.", app.ApplicationType, app.ApplicationNumber, app.PropertyDetails.Data().PropertyName),
	).About("application", app.ID).With(applicationData(app)))
}

func (s *NotificationService) StatusUpdated(ctx context.Context, app *models.Application, remarks string) {
	message := fmt.Sprintf("Your application %s is now %s.", app.ApplicationNumber, app.Status)
	if remarks != "" {
		message += " Remarks: " + remarks
	}
	s.send(ctx, notify.ToUser(app.ApplicantID, notify.KindStatusUpdate, "Application Status Updated", message).
		About("application", app.ID).With(applicationData(app)))
}

func (s *NotificationService) Assigned(ctx context.Context, app *models.Application, inspector *models.User) {
	s.send(ctx, notify.ToUser(inspector.ID, notify.KindAssignment,
		"New Assignment",
		fmt.Sprintf("Application %s has been assigned to you.", app.ApplicationNumber),
	).About("application", app.ID).With(applicationData(app)))
}

func (s *NotificationService) FollowUp(ctx context.Context, app *models.Application) {
	message := fmt.Sprintf("Follow-up for application %s is complete.", app.ApplicationNumber)
	if app.Status == models.ApplicationStatusFollowUpRequired && app.Deadlines.FollowUp != nil {
		message = fmt.Sprintf("Application %s requires a follow-up by %s.", app.ApplicationNumber, app.Deadlines.FollowUp.Format(time.DateOnly))
	}
	s.send(ctx, notify.ToUser(app.ApplicantID, notify.KindFollowUp, "Follow-up Update", message).
		About("application", app.ID).With(applicationData(app)))
}

func (s *NotificationService) Overdue(ctx context.Context, app *models.Application) {
	s.send(ctx, notify.ToUser(app.ApplicantID, notify.KindOverdue,
		"Application Overdue",
		fmt.Sprintf("Application %s has passed its deadline and has been escalated.", app.ApplicationNumber),
	).About("application", app.ID).With(applicationData(app)))
}

// Inspection notifications
func (s *NotificationService) InspectionScheduled(ctx context.Context, app *models.Application, inspection *models.Inspection) {
	message := fmt.Sprintf("An inspection for application %s is scheduled on %s.",
		app.ApplicationNumber, inspection.InspectionDate.Format(time.DateOnly))
	if inspection.Status == models.InspectionStatusRescheduled {
		message = fmt.Sprintf("The inspection for application %s has been rescheduled to %s.",
			app.ApplicationNumber, inspection.InspectionDate.Format(time.DateOnly))
	}
	s.send(ctx, notify.ToUser(app.ApplicantID, notify.KindInspectionScheduled, "Inspection Scheduled", message).
		About("inspection", inspection.ID).With(applicationData(app)))
}

// Certificate notifications
func (s *NotificationService) NOCIssued(ctx context.Context, noc *models.Certificate) {
	s.send(ctx, notify.ToUser(noc.ApplicantID, notify.KindNOCIssued,
		"NOC Issued",
		fmt.Sprintf("Your NOC %s has been issued and is valid until %s.", noc.NOCNumber, noc.ValidUntil.Format(time.DateOnly)),
	).About("noc", noc.ID).With(map[string]any{"number": noc.NOCNumber}))
}

func (s *NotificationService) NOCRevoked(ctx context.Context, noc *models.Certificate, reason string) {
	s.send(ctx, notify.ToUser(noc.ApplicantID, notify.KindNOCRevoked,
		"NOC Revoked",
		fmt.Sprintf("Your NOC %s has been revoked. Reason: %s", noc.NOCNumber, reason),
	).About("noc", noc.ID).With(map[string]any{"number": noc.NOCNumber}))
}

// License notifications
func (s *NotificationService) LicenseIssued(ctx context.Context, license *models.License) {
	s.send(ctx, notify.ToUser(license.LicenseeID, notify.KindLicenseIssued,
		"License Issued",
		fmt.Sprintf("Your license %s has been issued and is valid until %s.", license.LicenseNumber, license.ValidUntil.Format(time.DateOnly)),
	).About("license", license.ID).With(map[string]any{"number": license.LicenseNumber}))
}

func (s *NotificationService) LicenseRevoked(ctx context.Context, license *models.License, reason string) {
	s.send(ctx, notify.ToUser(license.LicenseeID, notify.KindLicenseRevoked,
		"License Revoked",
		fmt.Sprintf("Your license %s has been revoked. Reason: %s", license.LicenseNumber, reason),
	).About("license", license.ID).With(map[string]any{"number": license.LicenseNumber}))
}

// RenewalReminder reports delivery failure to the sweep for logging.
func (s *NotificationService) RenewalReminder(ctx context.Context, license *models.License, daysLeft int) error {
	return s.send(ctx, notify.ToUser(license.LicenseeID, notify.KindRenewalReminder,
		"License Renewal Reminder",
		fmt.Sprintf("Your license %s expires in %d days on %s. Please apply for renewal.",
			license.LicenseNumber, daysLeft, license.ValidUntil.Format(time.DateOnly)),
	).About("license", license.ID).With(map[string]any{
		"number":    license.LicenseNumber,
		"days_left": daysLeft,
	}))
}

// Helper methods
func (s *NotificationService) send(ctx context.Context, n notify.Notification) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.dispatcher.Notify(ctx, n); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":          n.Kind,
			"resource_type": n.ResourceType,
		}).Warn("Failed to dispatch notification")
		return err
	}
	return nil
}

func applicationData(app *models.Application) map[string]any {
	return map[string]any{
		"number": app.ApplicationNumber,
		"status": string(app.Status),
	}
}

// internal/services/sweeper_service_test.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/notify/mocks"
)

func (s *ServicesTestSuite) TestOverdueSweepFlagsInspectionDeadlineOnce() {
	late := s.submit()
	s.clock.Step(3 * day)
	onTime := s.submit()

	s.clock.Step(5 * day)
	flagged, err := s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, flagged)
	s.True(s.reload(late.ID).IsOverdue)
	s.False(s.reload(onTime.ID).IsOverdue)

	notes := s.dispatcher.ofKind(notify.KindOverdue)
	s.Require().Len(notes, 1)
	s.Equal(late.ID, *notes[0].ResourceID)

	flagged, err = s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Zero(flagged)
	s.Len(s.dispatcher.ofKind(notify.KindOverdue), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OverdueFlagged))
}

func (s *ServicesTestSuite) TestOverdueSweepFlagsFollowUpDeadline() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, true)

	s.clock.Step(4 * day)
	flagged, err := s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Zero(flagged)

	s.clock.Step(2 * day)
	flagged, err = s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, flagged)
	s.True(s.reload(app.ID).IsOverdue)

	// A new follow-up cycle starts a fresh deadline and clears the flag.
	again, err := s.applications.UpdateFollowUp(s.ctx, app.ID, FollowUpRequest{RequiresAdditional: true}, s.officer)
	s.Require().NoError(err)
	s.False(again.IsOverdue)

	flagged, err = s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Zero(flagged)
}

func (s *ServicesTestSuite) TestOverdueSweepIgnoresClosedApplications() {
	app := s.submit()
	_, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusRejected}, s.officer)
	s.Require().NoError(err)

	s.clock.Step(30 * day)
	flagged, err := s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)
	s.Zero(flagged)
}

func (s *ServicesTestSuite) TestOverdueFlagSurvivesReview() {
	app := s.submit()
	s.clock.Step(8 * day)
	_, err := s.sweeper.CheckOverdueApplications(s.ctx)
	s.Require().NoError(err)

	reviewed, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusUnderReview}, s.officer)
	s.Require().NoError(err)
	s.True(reviewed.IsOverdue)

	inspector := s.inspector("late")
	_, err = s.inspections.ScheduleInspection(s.ctx, ScheduleInspectionRequest{
		ApplicationID:  app.ID,
		InspectionDate: s.now().Add(day),
		InspectorID:    &inspector.ID,
	}, s.officer)
	s.Require().NoError(err)
	s.False(s.reload(app.ID).IsOverdue)
}

func (s *ServicesTestSuite) TestExpirySweepIsIdempotent() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	s.clock.Step(366 * day)
	result, err := s.sweeper.ExpireDocuments(s.ctx)
	s.Require().NoError(err)
	s.Equal(ExpiryResult{Certificates: 1, Licenses: 1}, result)

	got, err := s.licenses.GetLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.Equal(models.LicenseStatusExpired, got.Status)

	result, err = s.sweeper.ExpireDocuments(s.ctx)
	s.Require().NoError(err)
	s.Equal(ExpiryResult{}, result)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LicensesExpired))
	s.Empty(s.dispatcher.ofKind(notify.KindLicenseRevoked))
}

func (s *ServicesTestSuite) TestExpirySweepLeavesRevokedAlone() {
	app := s.inspected()
	noc := s.issueNOC(app)
	_, err := s.nocs.RevokeNOC(s.ctx, noc.ID, "revoked", s.officer)
	s.Require().NoError(err)

	s.clock.Step(400 * day)
	result, err := s.sweeper.ExpireDocuments(s.ctx)
	s.Require().NoError(err)
	s.Zero(result.Certificates)

	got, err := s.nocs.GetNOC(s.ctx, noc.ID)
	s.Require().NoError(err)
	s.Equal(models.CertificateStatusRevoked, got.Status)
}

func (s *ServicesTestSuite) TestRenewalRemindersSentOnce() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	s.clock.Step(300 * day)
	sent, err := s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)

	s.clock.Step(45 * day)
	sent, err = s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, sent)

	notes := s.dispatcher.ofKind(notify.KindRenewalReminder)
	s.Require().Len(notes, 1)
	s.Equal(20, notes[0].Data["days_left"])

	got, err := s.licenses.GetLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.True(got.ReminderSent)

	sent, err = s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RemindersSent))
}

func (s *ServicesTestSuite) TestRenewalReminderNotRepeatedAfterFailedDelivery() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	ctrl := gomock.NewController(s.T())
	d := mocks.NewMockDispatcher(ctrl)
	d.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n notify.Notification) error {
		s.Equal(notify.KindRenewalReminder, n.Kind)
		return errors.New("smtp unavailable")
	}).Times(1)
	s.deps.Notifier = NewNotificationService(d, time.Second)
	s.rebuild()

	s.clock.Step(345 * day)
	sent, err := s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, sent)

	got, err := s.licenses.GetLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.True(got.ReminderSent)

	s.clock.Step(day)
	sent, err = s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)
}

func (s *ServicesTestSuite) TestRenewalReminderOnceWhenOneChannelFails() {
	app := s.inspected()
	s.issueNOC(app)
	s.issueLicense(app)

	inApp := &recordingDispatcher{}
	failing := notify.DispatcherFunc(func(context.Context, notify.Notification) error {
		return errors.New("smtp unavailable")
	})
	multi := notify.NewMulti(
		notify.Channel{Name: "in_app", Dispatcher: inApp},
		notify.Channel{Name: "email", Dispatcher: failing},
	).OnFailure(s.metrics.IncDispatchFailure)
	s.deps.Notifier = NewNotificationService(multi, time.Second)
	s.rebuild()

	s.clock.Step(340 * day)
	total := 0
	for i := 0; i < 5; i++ {
		sent, err := s.sweeper.SendRenewalReminders(s.ctx)
		s.Require().NoError(err)
		total += sent
		s.clock.Step(day)
	}

	s.Equal(1, total)
	s.Len(inApp.ofKind(notify.KindRenewalReminder), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RemindersSent))
}

func (s *ServicesTestSuite) TestRenewalResetsReminder() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	s.clock.Step(345 * day)
	_, err := s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)

	_, err = s.licenses.RenewLicense(s.ctx, license.ID, RenewLicenseRequest{ValidityYears: 1}, s.officer)
	s.Require().NoError(err)

	sent, err := s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Zero(sent)

	s.clock.Step(365 * day)
	sent, err = s.sweeper.SendRenewalReminders(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, sent)
}

// internal/services/application_service_test.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/notify/mocks"
)

func (s *ServicesTestSuite) TestCreateApplicationStartsTimelineAndDeadline() {
	app := s.submit()

	s.Equal("FD2025000001", app.ApplicationNumber)
	s.Equal(models.ApplicationStatusSubmitted, app.Status)
	s.Equal(models.PriorityMedium, app.Priority)
	s.Require().Len(app.Timeline, 1)
	s.Equal(models.ApplicationStatusSubmitted, app.Timeline[0].Status)
	s.Equal(s.applicant, app.Timeline[0].UpdatedBy)
	s.Require().NotNil(app.Deadlines.Inspection)
	s.Equal(s.now().Add(7*day), *app.Deadlines.Inspection)
	s.Nil(app.Deadlines.FollowUp)
	s.Nil(app.Deadlines.FinalDecision)

	submitted := s.dispatcher.ofKind(notify.KindApplicationSubmitted)
	s.Require().Len(submitted, 1)
	s.Equal(s.applicant, *submitted[0].RecipientID)
	staff := s.dispatcher.ofKind(notify.KindNewApplication)
	s.Require().Len(staff, 1)
	s.Equal(notify.AudienceStaff, staff[0].Audience)
}

func (s *ServicesTestSuite) TestApplicationNumbersIncrement() {
	s.Equal("FD2025000001", s.submit().ApplicationNumber)
	s.Equal("FD2025000002", s.submit().ApplicationNumber)
}

func (s *ServicesTestSuite) TestDeletedNumbersAreNotReused() {
	first := s.submit()
	s.Require().NoError(s.applications.DeleteApplication(s.ctx, first.ID))

	_, err := s.applications.GetApplication(s.ctx, first.ID)
	s.True(errors.Is(err, apperrors.ErrNotFound))
	s.Equal("FD2025000002", s.submit().ApplicationNumber)
}

func (s *ServicesTestSuite) TestRejectClearsDeadlinesAndKeepsReason() {
	app := s.submit()

	rejected, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{
		Status:  models.ApplicationStatusRejected,
		Remarks: "Incomplete fire exit plans",
	}, s.officer)
	s.Require().NoError(err)

	s.Equal(models.ApplicationStatusRejected, rejected.Status)
	s.True(rejected.Deadlines.Empty())
	s.Equal("Incomplete fire exit plans", rejected.RejectionReason)
	s.Len(rejected.Timeline, 2)
	s.Len(s.dispatcher.ofKind(notify.KindStatusUpdate), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusTransitions.WithLabelValues("rejected")))
}

func (s *ServicesTestSuite) TestIllegalTransitionIsRejected() {
	app := s.submit()

	_, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusNOCIssued}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))

	_, err = s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: "archived"}, s.officer)
	s.True(errors.Is(err, apperrors.ErrValidation))

	s.Len(s.reload(app.ID).Timeline, 1)
}

func (s *ServicesTestSuite) TestIssuanceStatusesOnlyFollowIssuance() {
	app := s.inspected()

	_, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusNOCIssued}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
	got := s.reload(app.ID)
	s.Equal(models.ApplicationStatusInspectionCompleted, got.Status)
	s.Nil(got.NOCID)

	noc := s.issueNOC(app)
	s.Equal(noc.ID, *s.reload(app.ID).NOCID)

	_, err = s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusLicenseIssued}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
	got = s.reload(app.ID)
	s.Equal(models.ApplicationStatusNOCIssued, got.Status)
	s.Nil(got.LicenseID)

	license := s.issueLicense(app)
	s.Equal(license.ID, *s.reload(app.ID).LicenseID)
}

func (s *ServicesTestSuite) TestInspectionStatusesNeedAnInspection() {
	app := s.submit()

	for _, target := range []models.ApplicationStatus{
		models.ApplicationStatusInspectionScheduled,
		models.ApplicationStatusInspectionCompleted,
	} {
		_, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: target}, s.officer)
		s.True(errors.Is(err, apperrors.ErrPreconditionFailed), target)
	}

	_, err := s.nocs.IssueNOC(s.ctx, IssueNOCRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
	s.Len(s.reload(app.ID).Timeline, 1)
}

func (s *ServicesTestSuite) TestUnknownApplicationIsNotFound() {
	_, err := s.applications.UpdateStatus(s.ctx, uuid.New(), UpdateStatusRequest{Status: models.ApplicationStatusUnderReview}, s.officer)
	s.True(errors.Is(err, apperrors.ErrNotFound))
}

func (s *ServicesTestSuite) TestFollowUpCompletedIsStoredAsApproved() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, true)
	s.Require().Equal(models.ApplicationStatusFollowUpRequired, app.Status)

	s.clock.Step(2 * day)
	approved, err := s.applications.UpdateFollowUp(s.ctx, app.ID, FollowUpRequest{Completed: true, Remarks: "Extinguishers replaced"}, s.officer)
	s.Require().NoError(err)

	s.Equal(models.ApplicationStatusApproved, approved.Status)
	n := len(approved.Timeline)
	s.Equal(models.ApplicationStatusFollowUpCompleted, approved.Timeline[n-2].Status)
	s.Equal(models.ApplicationStatusApproved, approved.Timeline[n-1].Status)
	s.Require().NotNil(approved.Deadlines.FinalDecision)
	s.Equal(s.now().Add(3*day), *approved.Deadlines.FinalDecision)
	s.Equal(models.ApplicationStatusApproved, s.reload(app.ID).Status)
}

func (s *ServicesTestSuite) TestAdditionalFollowUpStartsNewDeadline() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, true)

	s.clock.Step(day)
	again, err := s.applications.UpdateFollowUp(s.ctx, app.ID, FollowUpRequest{RequiresAdditional: true}, s.officer)
	s.Require().NoError(err)

	s.Equal(models.ApplicationStatusFollowUpRequired, again.Status)
	s.Equal(s.now().Add(5*day), *again.Deadlines.FollowUp)
	s.NotEmpty(s.dispatcher.ofKind(notify.KindFollowUp))

	_, err = s.applications.UpdateFollowUp(s.ctx, app.ID, FollowUpRequest{}, s.officer)
	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *ServicesTestSuite) TestManualAssignment() {
	app := s.submit()
	inspector := s.inspector("meera")

	assigned, err := s.applications.AssignApplication(s.ctx, app.ID, inspector.ID, s.officer)
	s.Require().NoError(err)

	s.Equal(models.ApplicationStatusUnderReview, assigned.Status)
	s.Equal(inspector.ID, *assigned.AssignedTo)
	last, _ := assigned.LastTimelineEntry()
	s.Equal("Assigned to meera", last.Remarks)

	notes := s.dispatcher.ofKind(notify.KindAssignment)
	s.Require().Len(notes, 1)
	s.Equal(inspector.ID, *notes[0].RecipientID)
}

func (s *ServicesTestSuite) TestManualAssignmentRequiresActiveInspector() {
	app := s.submit()
	citizen, err := s.users.CreateUser(s.ctx, CreateUserRequest{Name: "ravi", Email: "ravi@example.com", Role: models.UserRoleCitizen})
	s.Require().NoError(err)

	_, err = s.applications.AssignApplication(s.ctx, app.ID, citizen.ID, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))

	inspector := s.inspector("inactive")
	inactive := false
	_, err = s.users.UpdateUser(s.ctx, inspector.ID, UpdateUserRequest{IsActive: &inactive})
	s.Require().NoError(err)

	_, err = s.applications.AssignApplication(s.ctx, app.ID, inspector.ID, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

func (s *ServicesTestSuite) loadInspector(inspector *models.User, open int) {
	for i := 0; i < open; i++ {
		app := s.submit()
		_, err := s.store.UpdateApplication(s.ctx, app.ID, func(a *models.Application) error {
			a.AssignedTo = &inspector.ID
			return nil
		})
		s.Require().NoError(err)
	}
}

func (s *ServicesTestSuite) TestAutoAssignPicksLeastLoaded() {
	a := s.inspector("a")
	b := s.inspector("b")
	c := s.inspector("c")
	s.loadInspector(a, 2)
	s.loadInspector(c, 1)

	// Closed work does not count toward load.
	closed := s.submit()
	_, err := s.store.UpdateApplication(s.ctx, closed.ID, func(app *models.Application) error {
		app.AssignedTo = &b.ID
		app.Status = models.ApplicationStatusRejected
		return nil
	})
	s.Require().NoError(err)

	app := s.submit()
	assigned, err := s.applications.AutoAssign(s.ctx, app.ID, s.officer)
	s.Require().NoError(err)
	s.Equal(b.ID, *assigned.AssignedTo)
	s.Equal(models.ApplicationStatusUnderReview, assigned.Status)

	workloads, err := s.users.InspectorWorkloads(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(workloads, 3)
	s.Equal([]int64{2, 1, 1}, []int64{workloads[0].Load, workloads[1].Load, workloads[2].Load})
}

func (s *ServicesTestSuite) TestAutoAssignTieGoesToFirstInspector() {
	first := s.inspector("first")
	second := s.inspector("second")
	s.loadInspector(first, 1)
	s.loadInspector(second, 1)

	app := s.submit()
	assigned, err := s.applications.AutoAssign(s.ctx, app.ID, s.officer)
	s.Require().NoError(err)
	s.Equal(first.ID, *assigned.AssignedTo)
}

func (s *ServicesTestSuite) TestAutoAssignWithoutInspectorsIsNoop() {
	app := s.submit()

	got, err := s.applications.AutoAssign(s.ctx, app.ID, s.officer)
	s.Require().NoError(err)
	s.Nil(got.AssignedTo)
	s.Equal(models.ApplicationStatusSubmitted, got.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.NoInspectors))
	s.Empty(s.dispatcher.ofKind(notify.KindAssignment))
}

func (s *ServicesTestSuite) TestDispatchFailureDoesNotUndoWorkflow() {
	ctrl := gomock.NewController(s.T())
	failing := mocks.NewMockDispatcher(ctrl)
	failing.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).AnyTimes()

	s.deps.Notifier = NewNotificationService(failing, time.Second)
	s.rebuild()

	app := s.submit()
	s.Equal(models.ApplicationStatusSubmitted, s.reload(app.ID).Status)

	updated, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusUnderReview}, s.officer)
	s.Require().NoError(err)
	s.Equal(models.ApplicationStatusUnderReview, updated.Status)
}

func (s *ServicesTestSuite) TestNotificationContextOutlivesCaller() {
	ctrl := gomock.NewController(s.T())
	d := mocks.NewMockDispatcher(ctrl)
	d.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ notify.Notification) error {
		_, hasDeadline := ctx.Deadline()
		s.True(hasDeadline)
		return ctx.Err()
	}).Times(2)

	notifier := NewNotificationService(d, time.Second)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	notifier.ApplicationSubmitted(ctx, &models.Application{ApplicantID: s.applicant, ApplicationNumber: "FD2025000009"})
}

// internal/services/inspection_service_test.go
package services

import (
	"errors"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/store"
)

func (s *ServicesTestSuite) TestScheduleInspectionLinksApplication() {
	app, inspection := s.scheduled()

	got := s.reload(app.ID)
	s.Equal(models.ApplicationStatusInspectionScheduled, got.Status)
	s.Require().NotNil(got.InspectionID)
	s.Equal(inspection.ID, *got.InspectionID)
	s.Equal(inspection.InspectorID, *got.AssignedTo)
	s.Equal(s.now().Add(7*day), *got.Deadlines.Inspection)

	last, _ := got.LastTimelineEntry()
	s.Equal("Inspection scheduled for 2025-06-04", last.Remarks)
	s.Len(s.dispatcher.ofKind(notify.KindInspectionScheduled), 1)
}

func (s *ServicesTestSuite) TestScheduleInspectionTwiceFails() {
	app, inspection := s.scheduled()

	_, err := s.inspections.ScheduleInspection(s.ctx, ScheduleInspectionRequest{
		ApplicationID:  app.ID,
		InspectionDate: s.now().Add(3 * day),
		InspectorID:    &inspection.InspectorID,
	}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))

	inspections, total, err := s.inspections.ListInspections(s.ctx, storeInspectionsFor(app), store.All)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Len(inspections, 1)
}

func (s *ServicesTestSuite) TestScheduleInspectionUsesAssignee() {
	app := s.submit()
	inspector := s.inspector("assignee")
	_, err := s.applications.AssignApplication(s.ctx, app.ID, inspector.ID, s.officer)
	s.Require().NoError(err)

	inspection, err := s.inspections.ScheduleInspection(s.ctx, ScheduleInspectionRequest{
		ApplicationID:  app.ID,
		InspectionDate: s.now().Add(day),
	}, s.officer)
	s.Require().NoError(err)
	s.Equal(inspector.ID, inspection.InspectorID)
}

func (s *ServicesTestSuite) TestScheduleInspectionRequiresInspector() {
	app := s.submit()

	_, err := s.inspections.ScheduleInspection(s.ctx, ScheduleInspectionRequest{
		ApplicationID:  app.ID,
		InspectionDate: s.now().Add(day),
	}, s.officer)
	s.True(errors.Is(err, apperrors.ErrValidation))
	s.Nil(s.reload(app.ID).InspectionID)
}

func (s *ServicesTestSuite) TestScheduleInspectionRollsBackOnIllegalTransition() {
	app := s.submit()
	_, err := s.applications.UpdateStatus(s.ctx, app.ID, UpdateStatusRequest{Status: models.ApplicationStatusRejected}, s.officer)
	s.Require().NoError(err)
	inspector := s.inspector("late")

	_, err = s.inspections.ScheduleInspection(s.ctx, ScheduleInspectionRequest{
		ApplicationID:  app.ID,
		InspectionDate: s.now().Add(day),
		InspectorID:    &inspector.ID,
	}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))

	_, total, err := s.inspections.ListInspections(s.ctx, storeInspectionsFor(app), store.All)
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *ServicesTestSuite) TestCompleteInspectionScoresChecklist() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, false)

	s.Equal(models.ApplicationStatusInspectionCompleted, app.Status)
	last, _ := app.LastTimelineEntry()
	s.Equal("Inspection completed. Overall compliance: 75%", last.Remarks)

	got, err := s.inspections.GetInspection(s.ctx, inspection.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.OverallCompliance)
	s.Equal(75, *got.OverallCompliance)
	s.Require().NotNil(got.CompletedAt)
	s.Equal(s.now(), *got.CompletedAt)

	completed := models.InspectionStatusCompleted
	_, err = s.inspections.UpdateInspection(s.ctx, inspection.ID, UpdateInspectionRequest{Status: &completed}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

func (s *ServicesTestSuite) TestFollowUpDeadlineDerivedFromConfig() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, true)

	s.Equal(models.ApplicationStatusFollowUpRequired, app.Status)
	s.Require().NotNil(app.Deadlines.FollowUp)
	s.Equal(s.now().Add(5*day), *app.Deadlines.FollowUp)

	got, err := s.inspections.GetInspection(s.ctx, inspection.ID)
	s.Require().NoError(err)
	s.Equal(s.now().Add(5*day), *got.FollowUpDeadline)
	s.Len(s.dispatcher.ofKind(notify.KindFollowUp), 1)
}

func (s *ServicesTestSuite) TestExplicitFollowUpDeadlineWins() {
	_, inspection := s.scheduled()
	deadline := s.now().Add(10 * day)
	completed := models.InspectionStatusCompleted
	requires := true

	_, err := s.inspections.UpdateInspection(s.ctx, inspection.ID, UpdateInspectionRequest{
		Status:           &completed,
		RequiresFollowUp: &requires,
		FollowUpDeadline: &deadline,
	}, s.officer)
	s.Require().NoError(err)

	app := s.reload(inspection.ApplicationID)
	s.Equal(deadline, *app.Deadlines.FollowUp)
	last, _ := app.LastTimelineEntry()
	s.Equal("Inspection completed. Overall compliance: N/A", last.Remarks)
}

func (s *ServicesTestSuite) TestPartialInspectionUpdateKeepsApplication() {
	_, inspection := s.scheduled()
	inProgress := models.InspectionStatusInProgress
	remarks := "Ground floor done"

	got, err := s.inspections.UpdateInspection(s.ctx, inspection.ID, UpdateInspectionRequest{
		Status:           &inProgress,
		InspectorRemarks: &remarks,
	}, s.officer)
	s.Require().NoError(err)

	s.Equal(models.InspectionStatusInProgress, got.Status)
	s.Equal(remarks, got.InspectorRemarks)
	s.Equal(models.ApplicationStatusInspectionScheduled, s.reload(inspection.ApplicationID).Status)
}

func (s *ServicesTestSuite) TestRescheduleInspection() {
	app, inspection := s.scheduled()
	s.clock.Step(day)
	newDate := s.now().Add(4 * day)

	got, err := s.inspections.RescheduleInspection(s.ctx, inspection.ID, RescheduleInspectionRequest{
		InspectionDate: newDate,
		Reason:         "Owner travelling",
	}, s.officer)
	s.Require().NoError(err)

	s.Equal(models.InspectionStatusRescheduled, got.Status)
	s.Equal(newDate, got.InspectionDate)
	s.Equal("Rescheduled: Owner travelling", got.InspectorRemarks)

	reloaded := s.reload(app.ID)
	s.Equal(models.ApplicationStatusInspectionScheduled, reloaded.Status)
	s.Equal(s.now().Add(7*day), *reloaded.Deadlines.Inspection)
	last, _ := reloaded.LastTimelineEntry()
	s.Equal("Inspection rescheduled to 2025-06-07: Owner travelling", last.Remarks)
	s.Len(s.dispatcher.ofKind(notify.KindInspectionScheduled), 2)
}

func (s *ServicesTestSuite) TestRescheduleCompletedInspectionFails() {
	_, inspection := s.scheduled()
	s.complete(inspection, false)

	_, err := s.inspections.RescheduleInspection(s.ctx, inspection.ID, RescheduleInspectionRequest{
		InspectionDate: s.now().Add(day),
		Reason:         "late",
	}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

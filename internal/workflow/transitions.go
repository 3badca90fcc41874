// internal/workflow/transitions.go
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/models"
)

type status = models.ApplicationStatus

var allowedTransitions = map[status][]status{
	models.ApplicationStatusSubmitted: {
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusInspectionScheduled,
		models.ApplicationStatusRejected,
	},
	models.ApplicationStatusUnderReview: {
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusInspectionScheduled,
		models.ApplicationStatusRejected,
	},
	models.ApplicationStatusInspectionScheduled: {
		models.ApplicationStatusInspectionScheduled,
		models.ApplicationStatusInspectionCompleted,
		models.ApplicationStatusFollowUpRequired,
		models.ApplicationStatusRejected,
	},
	models.ApplicationStatusInspectionCompleted: {
		models.ApplicationStatusFollowUpRequired,
		models.ApplicationStatusFollowUpCompleted,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
	},
	models.ApplicationStatusFollowUpRequired: {
		models.ApplicationStatusFollowUpRequired,
		models.ApplicationStatusFollowUpCompleted,
		models.ApplicationStatusRejected,
	},
	// follow_up_completed is never stored; it resolves to approved at once.
	models.ApplicationStatusFollowUpCompleted: {
		models.ApplicationStatusApproved,
	},
	models.ApplicationStatusApproved:      {},
	models.ApplicationStatusNOCIssued:     {},
	models.ApplicationStatusRejected:      {},
	models.ApplicationStatusLicenseIssued: {},
}

// issuanceTransitions are only taken as a side effect of creating a
// certificate or license.
var issuanceTransitions = map[status][]status{
	models.ApplicationStatusInspectionCompleted: {models.ApplicationStatusNOCIssued},
	models.ApplicationStatusApproved:            {models.ApplicationStatusNOCIssued},
	models.ApplicationStatusNOCIssued:           {models.ApplicationStatusLicenseIssued},
}

// inspectionDriven statuses are set by recording an inspection outcome and
// never by a plain status update.
var inspectionDriven = map[status]bool{
	models.ApplicationStatusInspectionScheduled: true,
	models.ApplicationStatusInspectionCompleted: true,
}

// CanTransition reports whether an application may move from one status to
// another.
func CanTransition(from, to models.ApplicationStatus) bool {
	return reachable(allowedTransitions, from, to)
}

// CanRecord reports whether issuance may move an application from one
// status to another.
func CanRecord(from, to models.ApplicationStatus) bool {
	return reachable(issuanceTransitions, from, to)
}

// Manual reports whether staff may request the status directly. Issuance
// and inspection statuses only follow from their own records.
func Manual(to models.ApplicationStatus) bool {
	return !inspectionDriven[to] && to != models.ApplicationStatusNOCIssued && to != models.ApplicationStatusLicenseIssued
}

func reachable(table map[status][]status, from, to status) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from from.
func AllowedTransitions(from models.ApplicationStatus) []models.ApplicationStatus {
	return append([]models.ApplicationStatus(nil), allowedTransitions[from]...)
}

// Transition moves app to the new status, appends the timeline entry and
// applies the deadline side effects of the new status. Moving to
// follow_up_completed continues straight on to approved, so the stored
// status is approved with both entries on the timeline.
func Transition(app *models.Application, to models.ApplicationStatus, actor uuid.UUID, remarks string, now time.Time, cfg config.WorkflowConfig) error {
	if err := check(app, to); err != nil {
		return err
	}

	apply(app, to, actor, remarks, now)
	applyDeadlines(app, to, now, cfg)

	if to == models.ApplicationStatusFollowUpCompleted {
		apply(app, models.ApplicationStatusApproved, actor, remarks, now)
		applyDeadlines(app, models.ApplicationStatusApproved, now, cfg)
	}
	return nil
}

// Record sets an issuance status and appends the timeline entry without
// deadline side effects.
func Record(app *models.Application, to models.ApplicationStatus, actor uuid.UUID, remarks string, now time.Time) error {
	if !CanRecord(app.Status, to) {
		return apperrors.Precondition("application %s cannot move from %s to %s on issuance", app.ApplicationNumber, app.Status, to)
	}
	apply(app, to, actor, remarks, now)
	return nil
}

// NewTimeline is the timeline of a freshly submitted application.
func NewTimeline(applicant uuid.UUID, now time.Time) []models.TimelineEntry {
	return []models.TimelineEntry{{
		Status:    models.ApplicationStatusSubmitted,
		Timestamp: now,
		UpdatedBy: applicant,
		Remarks:   "Application submitted",
	}}
}

func check(app *models.Application, to models.ApplicationStatus) error {
	if !to.Valid() {
		return apperrors.Validation("unknown application status %q", to)
	}
	if !CanTransition(app.Status, to) {
		return apperrors.Precondition("application %s cannot move from %s to %s", app.ApplicationNumber, app.Status, to)
	}
	return nil
}

func apply(app *models.Application, to models.ApplicationStatus, actor uuid.UUID, remarks string, now time.Time) {
	app.Status = to
	app.Timeline = append(app.Timeline, models.TimelineEntry{
		Status:    to,
		Timestamp: now,
		UpdatedBy: actor,
		Remarks:   remarks,
	})
	if clearsOverdue(to) {
		app.IsOverdue = false
	}
}

// clearsOverdue is true for statuses that either start a new deadline or
// leave the stages the overdue sweep watches.
func clearsOverdue(to models.ApplicationStatus) bool {
	return to != models.ApplicationStatusSubmitted && to != models.ApplicationStatusUnderReview
}

// internal/workflow/deadlines.go
package workflow

import (
	"time"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/models"
)

const (
	// ScheduledInspectionDays is the inspection deadline set when an
	// inspection gets scheduled. It does not follow INSPECTION_DEADLINE_DAYS.
	ScheduledInspectionDays = 7
	FinalDecisionDays       = 3
)

const day = 24 * time.Hour

// ComputeDeadline returns base plus offsetDays whole days.
func ComputeDeadline(base time.Time, offsetDays int) time.Time {
	return base.Add(time.Duration(offsetDays) * day)
}

// InitialDeadlines are the deadlines of a freshly submitted application.
func InitialDeadlines(now time.Time, cfg config.WorkflowConfig) models.Deadlines {
	inspection := ComputeDeadline(now, cfg.InspectionDeadlineDays)
	return models.Deadlines{Inspection: &inspection}
}

// FollowUpDeadline is the deadline for a follow-up cycle starting at now.
func FollowUpDeadline(now time.Time, cfg config.WorkflowConfig) time.Time {
	return ComputeDeadline(now, cfg.FollowUpDeadlineDays)
}

func applyDeadlines(app *models.Application, status models.ApplicationStatus, now time.Time, cfg config.WorkflowConfig) {
	switch status {
	case models.ApplicationStatusInspectionScheduled:
		d := ComputeDeadline(now, ScheduledInspectionDays)
		app.Deadlines.Inspection = &d
	case models.ApplicationStatusFollowUpRequired:
		d := FollowUpDeadline(now, cfg)
		app.Deadlines.FollowUp = &d
	case models.ApplicationStatusApproved:
		d := ComputeDeadline(now, FinalDecisionDays)
		app.Deadlines.FinalDecision = &d
	case models.ApplicationStatusRejected:
		app.Deadlines = models.Deadlines{}
	}
}

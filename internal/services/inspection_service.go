// internal/services/inspection_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

type InspectionService struct {
	Deps
}

type ScheduleInspectionRequest struct {
	ApplicationID  uuid.UUID  `json:"application_id" validate:"required"`
	InspectionDate time.Time  `json:"inspection_date" validate:"required"`
	InspectorID    *uuid.UUID `json:"inspector_id"`
}

// UpdateInspectionRequest carries the fields an inspector records. Nil
// fields are left unchanged.
type UpdateInspectionRequest struct {
	Status           *models.InspectionStatus `json:"status" validate:"omitempty,oneof=scheduled in_progress completed"`
	ChecklistItems   []models.ChecklistItem   `json:"checklist_items" validate:"omitempty,dive"`
	Findings         *models.Findings         `json:"findings"`
	RequiresFollowUp *bool                    `json:"requires_follow_up"`
	FollowUpDeadline *time.Time               `json:"follow_up_deadline"`
	InspectorRemarks *string                  `json:"inspector_remarks"`
}

type RescheduleInspectionRequest struct {
	InspectionDate time.Time `json:"inspection_date" validate:"required"`
	Reason         string    `json:"reason" validate:"required"`
}

func NewInspectionService(deps Deps) *InspectionService {
	return &InspectionService{Deps: deps}
}

// ScheduleInspection creates the application's inspection and links it in
// one transaction. The inspector defaults to the application's assignee.
func (s *InspectionService) ScheduleInspection(ctx context.Context, req ScheduleInspectionRequest, actor uuid.UUID) (*models.Inspection, error) {
	now := s.now()
	var (
		inspection *models.Inspection
		app        *models.Application
	)

	err := s.Store.WithinTx(ctx, func(tx store.Store) error {
		current, err := tx.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			return err
		}
		if current.InspectionID != nil {
			return apperrors.Precondition("application %s already has an inspection; reschedule it instead", current.ApplicationNumber)
		}

		inspectorID := req.InspectorID
		if inspectorID == nil {
			inspectorID = current.AssignedTo
		}
		if inspectorID == nil {
			return apperrors.Validation("an inspector is required to schedule an inspection")
		}
		inspector, err := tx.GetUser(ctx, *inspectorID)
		if err != nil {
			return err
		}
		if inspector.Role != models.UserRoleInspector || !inspector.IsActive {
			return apperrors.Precondition("user %s is not an active inspector", inspector.Email)
		}

		inspection = &models.Inspection{
			ApplicationID:  current.ID,
			InspectorID:    inspector.ID,
			InspectionDate: req.InspectionDate,
			Status:         models.InspectionStatusScheduled,
		}
		if err := tx.CreateInspection(ctx, inspection); err != nil {
			return err
		}

		remarks := fmt.Sprintf("Inspection scheduled for %s", req.InspectionDate.Format(time.DateOnly))
		app, err = tx.UpdateApplication(ctx, current.ID, func(a *models.Application) error {
			if err := workflow.Transition(a, models.ApplicationStatusInspectionScheduled, actor, remarks, now, s.Workflow); err != nil {
				return err
			}
			a.InspectionID = &inspection.ID
			if a.AssignedTo == nil {
				a.AssignedTo = &inspector.ID
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"application_number": app.ApplicationNumber,
		"inspection_id":      inspection.ID,
	}).Info("Inspection scheduled")

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.InspectionScheduled(ctx, app, inspection)
	return inspection, nil
}

// UpdateInspection records findings. Completing the inspection moves the
// application on to follow-up or to inspection_completed.
func (s *InspectionService) UpdateInspection(ctx context.Context, id uuid.UUID, req UpdateInspectionRequest, actor uuid.UUID) (*models.Inspection, error) {
	now := s.now()
	var (
		inspection *models.Inspection
		app        *models.Application
	)

	err := s.Store.WithinTx(ctx, func(tx store.Store) error {
		var err error
		inspection, err = tx.UpdateInspection(ctx, id, func(ins *models.Inspection) error {
			if ins.Status == models.InspectionStatusCompleted {
				return apperrors.Precondition("inspection is already completed")
			}
			s.applyFindings(ins, req, now)
			return nil
		})
		if err != nil || inspection.Status != models.InspectionStatusCompleted {
			return err
		}

		target := models.ApplicationStatusInspectionCompleted
		if inspection.RequiresFollowUp {
			target = models.ApplicationStatusFollowUpRequired
		}
		remarks := fmt.Sprintf("Inspection completed. Overall compliance: %s", complianceLabel(inspection.OverallCompliance))

		app, err = tx.UpdateApplication(ctx, inspection.ApplicationID, func(a *models.Application) error {
			if err := workflow.Transition(a, target, actor, remarks, now, s.Workflow); err != nil {
				return err
			}
			if target == models.ApplicationStatusFollowUpRequired && inspection.FollowUpDeadline != nil {
				deadline := *inspection.FollowUpDeadline
				a.Deadlines.FollowUp = &deadline
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if app != nil {
		logrus.WithFields(logrus.Fields{
			"application_number": app.ApplicationNumber,
			"compliance":         complianceLabel(inspection.OverallCompliance),
		}).Info("Inspection completed")

		s.Metrics.IncTransition(string(app.Status))
		if app.Status == models.ApplicationStatusFollowUpRequired {
			s.Notifier.FollowUp(ctx, app)
		} else {
			s.Notifier.StatusUpdated(ctx, app, "")
		}
	}
	return inspection, nil
}

func (s *InspectionService) applyFindings(ins *models.Inspection, req UpdateInspectionRequest, now time.Time) {
	if req.ChecklistItems != nil {
		ins.ChecklistItems = req.ChecklistItems
		ins.OverallCompliance = models.ComplianceScore(req.ChecklistItems)
	}
	if req.Findings != nil {
		ins.Findings = datatypes.NewJSONType(*req.Findings)
	}
	if req.InspectorRemarks != nil {
		ins.InspectorRemarks = *req.InspectorRemarks
	}
	if req.RequiresFollowUp != nil {
		ins.RequiresFollowUp = *req.RequiresFollowUp
	}
	if req.FollowUpDeadline != nil {
		deadline := *req.FollowUpDeadline
		ins.FollowUpDeadline = &deadline
	}
	if ins.RequiresFollowUp && ins.FollowUpDeadline == nil {
		deadline := workflow.FollowUpDeadline(now, s.Workflow)
		ins.FollowUpDeadline = &deadline
	}
	if req.Status != nil {
		ins.Status = *req.Status
		if ins.Status == models.InspectionStatusCompleted {
			ins.CompletedAt = &now
		}
	}
}

// RescheduleInspection moves the inspection date in place.
func (s *InspectionService) RescheduleInspection(ctx context.Context, id uuid.UUID, req RescheduleInspectionRequest, actor uuid.UUID) (*models.Inspection, error) {
	now := s.now()
	var (
		inspection *models.Inspection
		app        *models.Application
	)

	err := s.Store.WithinTx(ctx, func(tx store.Store) error {
		var err error
		inspection, err = tx.UpdateInspection(ctx, id, func(ins *models.Inspection) error {
			if ins.Status == models.InspectionStatusCompleted {
				return apperrors.Precondition("a completed inspection cannot be rescheduled")
			}
			ins.InspectionDate = req.InspectionDate
			ins.Status = models.InspectionStatusRescheduled
			ins.InspectorRemarks = "Rescheduled: " + req.Reason
			return nil
		})
		if err != nil {
			return err
		}

		remarks := fmt.Sprintf("Inspection rescheduled to %s: %s", req.InspectionDate.Format(time.DateOnly), req.Reason)
		app, err = tx.UpdateApplication(ctx, inspection.ApplicationID, func(a *models.Application) error {
			return workflow.Transition(a, models.ApplicationStatusInspectionScheduled, actor, remarks, now, s.Workflow)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.InspectionScheduled(ctx, app, inspection)
	return inspection, nil
}

func (s *InspectionService) GetInspection(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	return s.Store.GetInspection(ctx, id)
}

func (s *InspectionService) ListInspections(ctx context.Context, filter store.InspectionFilter, page store.Page) ([]models.Inspection, int64, error) {
	return s.Store.FindInspections(ctx, filter, page)
}

func complianceLabel(score *int) string {
	if score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", *score)
}

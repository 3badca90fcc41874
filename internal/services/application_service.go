// internal/services/application_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

type ApplicationService struct {
	Deps
}

type CreateApplicationRequest struct {
	ApplicationType models.ApplicationType `json:"application_type" validate:"required,oneof=fire_inspection noc license renewal"`
	PropertyDetails models.PropertyDetails `json:"property_details" validate:"required"`
	Documents       []models.Document      `json:"documents" validate:"omitempty,dive"`
	Priority        models.Priority        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

type UpdateStatusRequest struct {
	Status  models.ApplicationStatus `json:"status" validate:"required,application_status"`
	Remarks string                   `json:"remarks"`
}

type FollowUpRequest struct {
	Completed          bool   `json:"completed"`
	RequiresAdditional bool   `json:"requires_additional"`
	Remarks            string `json:"remarks"`
}

func NewApplicationService(deps Deps) *ApplicationService {
	return &ApplicationService{Deps: deps}
}

// CreateApplication allocates the application number, records the
// submission and starts the inspection deadline.
func (s *ApplicationService) CreateApplication(ctx context.Context, applicantID uuid.UUID, req CreateApplicationRequest) (*models.Application, error) {
	now := s.now()

	number, err := s.nextNumber(ctx, workflow.PrefixApplication, now)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	documents := make([]models.Document, len(req.Documents))
	for i, doc := range req.Documents {
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		documents[i] = doc
	}

	app := &models.Application{
		ApplicationNumber: number,
		ApplicationType:   req.ApplicationType,
		ApplicantID:       applicantID,
		PropertyDetails:   datatypes.NewJSONType(req.PropertyDetails),
		Documents:         documents,
		Status:            models.ApplicationStatusSubmitted,
		Priority:          priority,
		Timeline:          workflow.NewTimeline(applicantID, now),
		Deadlines:         workflow.InitialDeadlines(now, s.Workflow),
	}

	if err := s.Store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"application_id":     app.ID,
		"application_number": app.ApplicationNumber,
	}).Info("Application submitted")

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.ApplicationSubmitted(ctx, app)
	return app, nil
}

func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.Store.GetApplication(ctx, id)
}

func (s *ApplicationService) ListApplications(ctx context.Context, filter store.ApplicationFilter, page store.Page) ([]models.Application, int64, error) {
	return s.Store.FindApplications(ctx, filter, page)
}

// UpdateStatus runs a transition through the state machine. Rejection
// remarks are also kept as the rejection reason. Inspection and issuance
// statuses are refused here; they follow from their own records.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, actor uuid.UUID) (*models.Application, error) {
	now := s.now()

	app, err := s.Store.UpdateApplication(ctx, id, func(app *models.Application) error {
		if req.Status.Valid() && !workflow.Manual(req.Status) {
			return apperrors.Precondition("application %s cannot be moved to %s directly", app.ApplicationNumber, req.Status)
		}
		if err := workflow.Transition(app, req.Status, actor, req.Remarks, now, s.Workflow); err != nil {
			return err
		}
		if req.Status == models.ApplicationStatusRejected {
			app.RejectionReason = req.Remarks
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.StatusUpdated(ctx, app, req.Remarks)
	return app, nil
}

// AssignApplication assigns an inspector chosen by staff.
func (s *ApplicationService) AssignApplication(ctx context.Context, id, inspectorID, actor uuid.UUID) (*models.Application, error) {
	inspector, err := s.Store.GetUser(ctx, inspectorID)
	if err != nil {
		return nil, err
	}
	if inspector.Role != models.UserRoleInspector || !inspector.IsActive {
		return nil, apperrors.Precondition("user %s is not an active inspector", inspector.Email)
	}
	return s.assign(ctx, id, inspector, actor)
}

// AutoAssign assigns the active inspector with the fewest open
// applications. With no active inspectors the application is returned
// unchanged.
func (s *ApplicationService) AutoAssign(ctx context.Context, id, actor uuid.UUID) (*models.Application, error) {
	app, err := s.Store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	candidates, err := inspectorWorkloads(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	chosen, ok := workflow.SelectLeastLoaded(candidates)
	if !ok {
		logrus.WithField("application_number", app.ApplicationNumber).Warn("No active inspectors available for auto-assignment")
		s.Metrics.IncNoInspectors()
		return app, nil
	}

	inspector, err := s.Store.GetUser(ctx, chosen.InspectorID)
	if err != nil {
		return nil, err
	}
	return s.assign(ctx, id, inspector, actor)
}

func (s *ApplicationService) assign(ctx context.Context, id uuid.UUID, inspector *models.User, actor uuid.UUID) (*models.Application, error) {
	now := s.now()
	remarks := fmt.Sprintf("Assigned to %s", inspector.Name)

	app, err := s.Store.UpdateApplication(ctx, id, func(app *models.Application) error {
		if err := workflow.Transition(app, models.ApplicationStatusUnderReview, actor, remarks, now, s.Workflow); err != nil {
			return err
		}
		app.AssignedTo = &inspector.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"application_number": app.ApplicationNumber,
		"inspector_id":       inspector.ID,
	}).Info("Application assigned")

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.Assigned(ctx, app, inspector)
	return app, nil
}

// UpdateFollowUp closes a follow-up cycle or opens another one.
func (s *ApplicationService) UpdateFollowUp(ctx context.Context, id uuid.UUID, req FollowUpRequest, actor uuid.UUID) (*models.Application, error) {
	var target models.ApplicationStatus
	switch {
	case req.RequiresAdditional:
		target = models.ApplicationStatusFollowUpRequired
	case req.Completed:
		target = models.ApplicationStatusFollowUpCompleted
	default:
		return nil, apperrors.Validation("follow-up must be completed or require additional follow-up")
	}

	now := s.now()
	app, err := s.Store.UpdateApplication(ctx, id, func(app *models.Application) error {
		return workflow.Transition(app, target, actor, req.Remarks, now, s.Workflow)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncTransition(string(app.Status))
	s.Notifier.FollowUp(ctx, app)
	return app, nil
}

// DeleteApplication soft-deletes an application. Its number stays
// allocated.
func (s *ApplicationService) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.DeleteApplication(ctx, id); err != nil {
		return err
	}
	logrus.WithField("application_id", id).Info("Application deleted")
	return nil
}

// inspectorWorkloads lists active inspectors oldest first with their open
// application counts.
func inspectorWorkloads(ctx context.Context, st store.Store) ([]workflow.Candidate, error) {
	inspectors, _, err := st.FindUsers(ctx, store.UserFilter{
		Role:     models.UserRoleInspector,
		IsActive: store.Bool(true),
	}, store.All)
	if err != nil {
		return nil, err
	}

	candidates := make([]workflow.Candidate, 0, len(inspectors))
	for _, inspector := range inspectors {
		id := inspector.ID
		load, err := st.CountApplications(ctx, store.ApplicationFilter{
			AssignedTo:      &id,
			ExcludeStatuses: models.ClosedApplicationStatuses,
		})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, workflow.Candidate{
			InspectorID: inspector.ID,
			Name:        inspector.Name,
			Load:        load,
		})
	}
	return candidates, nil
}

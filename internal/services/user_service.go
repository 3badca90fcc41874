// internal/services/user_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

// UserService maintains the local directory of applicants and staff.
type UserService struct {
	store store.Store
}

type CreateUserRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Phone       string          `json:"phone" validate:"omitempty,max=20"`
	Role        models.UserRole `json:"role" validate:"required,oneof=citizen inspector admin"`
	NotifyEmail bool            `json:"notify_email"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	IsActive    *bool   `json:"is_active"`
	NotifyInApp *bool   `json:"notify_in_app"`
	NotifyEmail *bool   `json:"notify_email"`
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	user := &models.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       req.Phone,
		Role:        req.Role,
		IsActive:    true,
		NotifyInApp: true,
		NotifyEmail: req.NotifyEmail,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created")
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, filter store.UserFilter, page store.Page) ([]models.User, int64, error) {
	return s.store.FindUsers(ctx, filter, page)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	return s.store.UpdateUser(ctx, id, func(u *models.User) error {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			u.Phone = *req.Phone
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.NotifyInApp != nil {
			u.NotifyInApp = *req.NotifyInApp
		}
		if req.NotifyEmail != nil {
			u.NotifyEmail = *req.NotifyEmail
		}
		return nil
	})
}

// InspectorWorkloads lists active inspectors with their open application
// counts, in the order auto-assignment considers them.
func (s *UserService) InspectorWorkloads(ctx context.Context) ([]workflow.Candidate, error) {
	return inspectorWorkloads(ctx, s.store)
}

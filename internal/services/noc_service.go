// internal/services/noc_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

type NOCService struct {
	Deps
}

type IssueNOCRequest struct {
	ApplicationID uuid.UUID      `json:"application_id" validate:"required"`
	NOCType       models.NOCType `json:"noc_type" validate:"omitempty,oneof=construction occupancy event renovation"`
	Conditions    []string       `json:"conditions"`
	Restrictions  []string       `json:"restrictions"`
	Remarks       string         `json:"remarks"`
}

// nocEligible lists the application statuses a NOC may be issued from.
// A completed follow-up is stored as approved.
var nocEligible = []models.ApplicationStatus{
	models.ApplicationStatusInspectionCompleted,
	models.ApplicationStatusApproved,
}

func NewNOCService(deps Deps) *NOCService {
	return &NOCService{Deps: deps}
}

// IssueNOC creates the certificate and links it to its application in one
// transaction.
func (s *NOCService) IssueNOC(ctx context.Context, req IssueNOCRequest, actor uuid.UUID) (*models.Certificate, error) {
	now := s.now()
	var noc *models.Certificate

	err := s.Store.WithinTx(ctx, func(tx store.Store) error {
		app, err := tx.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			return err
		}
		if app.NOCID != nil {
			return apperrors.Conflict("a NOC has already been issued for application %s", app.ApplicationNumber)
		}
		if !isNOCEligible(app.Status) {
			return apperrors.Precondition("application %s is not eligible for NOC issuance (status %s)", app.ApplicationNumber, app.Status)
		}

		number, err := s.nextNumber(ctx, workflow.PrefixNOC, now)
		if err != nil {
			return err
		}

		nocType := req.NOCType
		if nocType == "" {
			nocType = models.NOCTypeConstruction
		}

		noc = &models.Certificate{
			NOCNumber:       number,
			ApplicationID:   app.ID,
			ApplicantID:     app.ApplicantID,
			PropertyDetails: app.PropertyDetails,
			NOCType:         nocType,
			IssuedBy:        actor,
			IssuedDate:      now,
			ValidUntil:      now.AddDate(0, s.Workflow.NOCValidityMonths, 0),
			Conditions:      req.Conditions,
			Restrictions:    req.Restrictions,
			Status:          models.CertificateStatusActive,
			Remarks:         req.Remarks,
		}
		if err := tx.CreateCertificate(ctx, noc); err != nil {
			return err
		}

		_, err = tx.UpdateApplication(ctx, app.ID, func(a *models.Application) error {
			if err := workflow.Record(a, models.ApplicationStatusNOCIssued, actor, "NOC issued: "+number, now); err != nil {
				return err
			}
			a.NOCID = &noc.ID
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"noc_number":     noc.NOCNumber,
		"application_id": noc.ApplicationID,
	}).Info("NOC issued")

	s.Metrics.IncTransition(string(models.ApplicationStatusNOCIssued))
	s.Notifier.NOCIssued(ctx, noc)
	return noc, nil
}

func (s *NOCService) GetNOC(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	return s.Store.GetCertificate(ctx, id)
}

func (s *NOCService) ListNOCs(ctx context.Context, filter store.CertificateFilter, page store.Page) ([]models.Certificate, int64, error) {
	return s.Store.FindCertificates(ctx, filter, page)
}

// RevokeNOC revokes an active or suspended certificate.
func (s *NOCService) RevokeNOC(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Certificate, error) {
	noc, err := s.Store.UpdateCertificate(ctx, id, func(c *models.Certificate) error {
		if c.Status != models.CertificateStatusActive && c.Status != models.CertificateStatusSuspended {
			return apperrors.Precondition("NOC %s is %s and cannot be revoked", c.NOCNumber, c.Status)
		}
		c.Status = models.CertificateStatusRevoked
		c.Remarks = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"noc_number": noc.NOCNumber,
		"actor":      actor,
	}).Info("NOC revoked")

	s.Notifier.NOCRevoked(ctx, noc, reason)
	return noc, nil
}

// SuspendNOC suspends an active certificate.
func (s *NOCService) SuspendNOC(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Certificate, error) {
	noc, err := s.Store.UpdateCertificate(ctx, id, func(c *models.Certificate) error {
		if c.Status != models.CertificateStatusActive {
			return apperrors.Precondition("NOC %s is %s and cannot be suspended", c.NOCNumber, c.Status)
		}
		c.Status = models.CertificateStatusSuspended
		c.Remarks = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"noc_number": noc.NOCNumber,
		"actor":      actor,
	}).Info("NOC suspended")
	return noc, nil
}

func isNOCEligible(status models.ApplicationStatus) bool {
	for _, s := range nocEligible {
		if s == status {
			return true
		}
	}
	return false
}

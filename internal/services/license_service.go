// internal/services/license_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/workflow"
)

type LicenseService struct {
	Deps
}

type FeesRequest struct {
	Amount        *float64              `json:"amount" validate:"omitempty,gte=0"`
	PaymentStatus *models.PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending paid overdue"`
	TransactionID *string               `json:"transaction_id"`
}

type IssueLicenseRequest struct {
	ApplicationID uuid.UUID          `json:"application_id" validate:"required"`
	LicenseType   models.LicenseType `json:"license_type" validate:"omitempty,oneof=fire_safety occupancy business event"`
	ValidityYears int                `json:"validity_years" validate:"gte=0,lte=10"`
	Conditions    []string           `json:"conditions"`
	Restrictions  []string           `json:"restrictions"`
	Fees          *FeesRequest       `json:"fees"`
	Remarks       string             `json:"remarks"`
}

type RenewLicenseRequest struct {
	ValidityYears int          `json:"validity_years" validate:"gte=0,lte=10"`
	Fees          *FeesRequest `json:"fees"`
}

// LicenseVerification is the public answer to "is this license valid".
type LicenseVerification struct {
	LicenseNumber   string               `json:"license_number"`
	Status          models.LicenseStatus `json:"status"`
	Valid           bool                 `json:"valid"`
	ValidUntil      string               `json:"valid_until"`
	DaysUntilExpiry int                  `json:"days_until_expiry"`
}

func NewLicenseService(deps Deps) *LicenseService {
	return &LicenseService{Deps: deps}
}

// IssueLicense creates the license for an application that holds an active
// NOC and links it in one transaction.
func (s *LicenseService) IssueLicense(ctx context.Context, req IssueLicenseRequest, actor uuid.UUID) (*models.License, error) {
	now := s.now()
	var license *models.License

	err := s.Store.WithinTx(ctx, func(tx store.Store) error {
		app, err := tx.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			return err
		}
		if app.LicenseID != nil {
			return apperrors.Conflict("a license has already been issued for application %s", app.ApplicationNumber)
		}
		if app.NOCID == nil {
			return apperrors.Precondition("application %s has no NOC; a NOC must be issued before the license", app.ApplicationNumber)
		}
		noc, err := tx.GetCertificate(ctx, *app.NOCID)
		if err != nil {
			return err
		}
		if noc.Status != models.CertificateStatusActive || noc.IsExpired(now) {
			return apperrors.Precondition("NOC %s is not active", noc.NOCNumber)
		}

		number, err := s.nextNumber(ctx, workflow.PrefixLicense, now)
		if err != nil {
			return err
		}

		licenseType := req.LicenseType
		if licenseType == "" {
			licenseType = models.LicenseTypeFireSafety
		}

		fees := models.Fees{PaymentStatus: models.PaymentStatusPaid}
		mergeFees(&fees, req.Fees, now)

		license = &models.License{
			LicenseNumber:   number,
			ApplicationID:   app.ID,
			LicenseeID:      app.ApplicantID,
			LicenseType:     licenseType,
			PropertyDetails: app.PropertyDetails,
			IssuedBy:        actor,
			IssuedDate:      now,
			ValidFrom:       now,
			ValidUntil:      now.AddDate(s.validityYears(req.ValidityYears), 0, 0),
			Status:          models.LicenseStatusActive,
			Conditions:      req.Conditions,
			Restrictions:    req.Restrictions,
			RenewalHistory:  []models.RenewalRecord{},
			Fees:            fees,
			Remarks:         req.Remarks,
		}
		if err := tx.CreateLicense(ctx, license); err != nil {
			return err
		}

		_, err = tx.UpdateApplication(ctx, app.ID, func(a *models.Application) error {
			if err := workflow.Record(a, models.ApplicationStatusLicenseIssued, actor, "License issued: "+number, now); err != nil {
				return err
			}
			a.LicenseID = &license.ID
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"license_number": license.LicenseNumber,
		"application_id": license.ApplicationID,
	}).Info("License issued")

	s.Metrics.IncTransition(string(models.ApplicationStatusLicenseIssued))
	s.Notifier.LicenseIssued(ctx, license)
	return license, nil
}

// RenewLicense extends validity from the current expiry, not from now.
func (s *LicenseService) RenewLicense(ctx context.Context, id uuid.UUID, req RenewLicenseRequest, actor uuid.UUID) (*models.License, error) {
	now := s.now()
	years := s.validityYears(req.ValidityYears)

	license, err := s.Store.UpdateLicense(ctx, id, func(l *models.License) error {
		if l.Status == models.LicenseStatusRevoked {
			return apperrors.Precondition("license %s is revoked and cannot be renewed", l.LicenseNumber)
		}

		previous := l.ValidUntil
		next := previous.AddDate(years, 0, 0)
		l.RenewalHistory = append(l.RenewalHistory, models.RenewalRecord{
			RenewedAt:      now,
			PreviousExpiry: previous,
			NewExpiry:      next,
			RenewedBy:      actor,
		})
		l.ValidUntil = next
		l.ReminderSent = false
		l.Status = models.LicenseStatusActive
		mergeFees(&l.Fees, req.Fees, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"license_number": license.LicenseNumber,
		"valid_until":    license.ValidUntil,
	}).Info("License renewed")
	return license, nil
}

func (s *LicenseService) SuspendLicense(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.License, error) {
	license, err := s.Store.UpdateLicense(ctx, id, func(l *models.License) error {
		if l.Status != models.LicenseStatusActive {
			return apperrors.Precondition("license %s is %s and cannot be suspended", l.LicenseNumber, l.Status)
		}
		l.Status = models.LicenseStatusSuspended
		l.Remarks = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"license_number": license.LicenseNumber,
		"actor":          actor,
	}).Info("License suspended")
	return license, nil
}

func (s *LicenseService) RevokeLicense(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.License, error) {
	license, err := s.Store.UpdateLicense(ctx, id, func(l *models.License) error {
		if l.Status == models.LicenseStatusRevoked {
			return apperrors.Precondition("license %s is already revoked", l.LicenseNumber)
		}
		l.Status = models.LicenseStatusRevoked
		l.Remarks = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"license_number": license.LicenseNumber,
		"actor":          actor,
	}).Info("License revoked")

	s.Notifier.LicenseRevoked(ctx, license, reason)
	return license, nil
}

// VerifyLicense reports whether the license is in force right now.
func (s *LicenseService) VerifyLicense(ctx context.Context, id uuid.UUID) (*LicenseVerification, error) {
	license, err := s.Store.GetLicense(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	valid := license.IsEffectivelyActive(now)
	days := 0
	if valid {
		days = license.DaysUntilExpiry(now)
	}
	return &LicenseVerification{
		LicenseNumber:   license.LicenseNumber,
		Status:          license.Status,
		Valid:           valid,
		ValidUntil:      license.ValidUntil.Format(time.DateOnly),
		DaysUntilExpiry: days,
	}, nil
}

func (s *LicenseService) GetLicense(ctx context.Context, id uuid.UUID) (*models.License, error) {
	return s.Store.GetLicense(ctx, id)
}

func (s *LicenseService) ListLicenses(ctx context.Context, filter store.LicenseFilter, page store.Page) ([]models.License, int64, error) {
	return s.Store.FindLicenses(ctx, filter, page)
}

func (s *LicenseService) validityYears(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.Workflow.LicenseValidityYears
}

// mergeFees applies the provided fee fields. A payment marked paid without
// a recorded date is dated now.
func mergeFees(fees *models.Fees, req *FeesRequest, now time.Time) {
	if req != nil {
		if req.Amount != nil {
			fees.Amount = *req.Amount
		}
		if req.PaymentStatus != nil {
			fees.PaymentStatus = *req.PaymentStatus
		}
		if req.TransactionID != nil {
			fees.TransactionID = *req.TransactionID
		}
	}
	if fees.PaymentStatus == models.PaymentStatusPaid && fees.PaymentDate == nil {
		fees.PaymentDate = &now
	}
}

// internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/firenoc-backend/internal/models"
)

// Store is the persistence boundary for workflow records.
//
// Update methods are read-modify-write: the record is loaded under a row
// lock, passed to mutate, and written back only if mutate returns nil.
// Concurrent updates of the same record are serialized.
type Store interface {
	// WithinTx runs fn against a transactional view of the store. All writes
	// made through tx are discarded if fn returns an error.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(*models.Application) error) (*models.Application, error)
	FindApplications(ctx context.Context, filter ApplicationFilter, page Page) ([]models.Application, int64, error)
	CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) error

	CreateInspection(ctx context.Context, inspection *models.Inspection) error
	GetInspection(ctx context.Context, id uuid.UUID) (*models.Inspection, error)
	UpdateInspection(ctx context.Context, id uuid.UUID, mutate func(*models.Inspection) error) (*models.Inspection, error)
	FindInspections(ctx context.Context, filter InspectionFilter, page Page) ([]models.Inspection, int64, error)

	CreateCertificate(ctx context.Context, noc *models.Certificate) error
	GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	UpdateCertificate(ctx context.Context, id uuid.UUID, mutate func(*models.Certificate) error) (*models.Certificate, error)
	FindCertificates(ctx context.Context, filter CertificateFilter, page Page) ([]models.Certificate, int64, error)
	// ExpireCertificates flips every active certificate whose validity ended
	// before now to expired and returns the number of rows changed.
	ExpireCertificates(ctx context.Context, now time.Time) (int64, error)

	CreateLicense(ctx context.Context, license *models.License) error
	GetLicense(ctx context.Context, id uuid.UUID) (*models.License, error)
	UpdateLicense(ctx context.Context, id uuid.UUID, mutate func(*models.License) error) (*models.License, error)
	FindLicenses(ctx context.Context, filter LicenseFilter, page Page) ([]models.License, int64, error)
	ExpireLicenses(ctx context.Context, now time.Time) (int64, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) (*models.User, error)
	// FindUsers returns users oldest first.
	FindUsers(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error)
}

// Sequencer hands out strictly increasing numbers per name.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Page selects a window of results. A zero Limit means no limit. Records
// come back newest first unless a method documents otherwise.
type Page struct {
	Offset int
	Limit  int
}

// All is the unbounded page.
var All = Page{}

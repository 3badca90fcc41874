// internal/store/gorm.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
)

const (
	newestFirst = "created_at DESC, id DESC"
	oldestFirst = "created_at ASC, id ASC"

	uniqueViolation = "23505"
)

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ Store     = (*GormStore)(nil)
	_ Sequencer = (*GormStore)(nil)
)

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Next allocates the next value of the named counter in one statement, so
// concurrent callers never share a number.
func (s *GormStore) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`, name,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", name, err)
	}
	return value, nil
}

// Applications

func (s *GormStore) CreateApplication(ctx context.Context, app *models.Application) error {
	return create(ctx, s.db, app, "application")
}

func (s *GormStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return getByID[models.Application](ctx, s.db, id, "application")
}

func (s *GormStore) UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(*models.Application) error) (*models.Application, error) {
	return updateLocked(ctx, s.db, id, "application", mutate)
}

func (s *GormStore) FindApplications(ctx context.Context, filter ApplicationFilter, page Page) ([]models.Application, int64, error) {
	return find[models.Application](ctx, s.db, filter.apply, newestFirst, page, "application")
}

func (s *GormStore) CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error) {
	var total int64
	if err := filter.apply(s.db.WithContext(ctx).Model(&models.Application{})).Count(&total).Error; err != nil {
		return 0, translateError(err, "application")
	}
	return total, nil
}

func (s *GormStore) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Application{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "application")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("application")
	}
	return nil
}

// Inspections

func (s *GormStore) CreateInspection(ctx context.Context, inspection *models.Inspection) error {
	return create(ctx, s.db, inspection, "inspection")
}

func (s *GormStore) GetInspection(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	return getByID[models.Inspection](ctx, s.db, id, "inspection")
}

func (s *GormStore) UpdateInspection(ctx context.Context, id uuid.UUID, mutate func(*models.Inspection) error) (*models.Inspection, error) {
	return updateLocked(ctx, s.db, id, "inspection", mutate)
}

func (s *GormStore) FindInspections(ctx context.Context, filter InspectionFilter, page Page) ([]models.Inspection, int64, error) {
	return find[models.Inspection](ctx, s.db, filter.apply, newestFirst, page, "inspection")
}

// Certificates

func (s *GormStore) CreateCertificate(ctx context.Context, noc *models.Certificate) error {
	return create(ctx, s.db, noc, "noc")
}

func (s *GormStore) GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	return getByID[models.Certificate](ctx, s.db, id, "noc")
}

func (s *GormStore) UpdateCertificate(ctx context.Context, id uuid.UUID, mutate func(*models.Certificate) error) (*models.Certificate, error) {
	return updateLocked(ctx, s.db, id, "noc", mutate)
}

func (s *GormStore) FindCertificates(ctx context.Context, filter CertificateFilter, page Page) ([]models.Certificate, int64, error) {
	return find[models.Certificate](ctx, s.db, filter.apply, newestFirst, page, "noc")
}

func (s *GormStore) ExpireCertificates(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("status = ? AND valid_until < ?", models.CertificateStatusActive, now).
		Update("status", models.CertificateStatusExpired)
	if result.Error != nil {
		return 0, translateError(result.Error, "noc")
	}
	return result.RowsAffected, nil
}

// Licenses

func (s *GormStore) CreateLicense(ctx context.Context, license *models.License) error {
	return create(ctx, s.db, license, "license")
}

func (s *GormStore) GetLicense(ctx context.Context, id uuid.UUID) (*models.License, error) {
	return getByID[models.License](ctx, s.db, id, "license")
}

func (s *GormStore) UpdateLicense(ctx context.Context, id uuid.UUID, mutate func(*models.License) error) (*models.License, error) {
	return updateLocked(ctx, s.db, id, "license", mutate)
}

func (s *GormStore) FindLicenses(ctx context.Context, filter LicenseFilter, page Page) ([]models.License, int64, error) {
	return find[models.License](ctx, s.db, filter.apply, newestFirst, page, "license")
}

func (s *GormStore) ExpireLicenses(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.License{}).
		Where("status = ? AND valid_until < ?", models.LicenseStatusActive, now).
		Update("status", models.LicenseStatusExpired)
	if result.Error != nil {
		return 0, translateError(result.Error, "license")
	}
	return result.RowsAffected, nil
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return create(ctx, s.db, user, "user")
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getByID[models.User](ctx, s.db, id, "user")
}

func (s *GormStore) UpdateUser(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) (*models.User, error) {
	return updateLocked(ctx, s.db, id, "user", mutate)
}

func (s *GormStore) FindUsers(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	return find[models.User](ctx, s.db, filter.apply, oldestFirst, page, "user")
}

func create[T any](ctx context.Context, db *gorm.DB, rec *T, resource string) error {
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return translateError(err, resource)
	}
	return nil
}

func getByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, resource string) (*T, error) {
	var rec T
	if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translateError(err, resource)
	}
	return &rec, nil
}

func updateLocked[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, resource string, mutate func(*T) error) (*T, error) {
	var rec T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		if err := mutate(&rec); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, translateError(err, resource)
	}
	return &rec, nil
}

func find[T any](ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB, order string, page Page, resource string) ([]T, int64, error) {
	var total int64
	if err := scope(db.WithContext(ctx).Model(new(T))).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, resource)
	}

	query := scope(db.WithContext(ctx).Model(new(T))).Order(order)
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}

	var out []T
	if err := query.Find(&out).Error; err != nil {
		return nil, 0, translateError(err, resource)
	}
	return out, total, nil
}

// translateError maps driver errors onto error kinds. Kinded errors from
// mutators pass through untouched.
func translateError(err error, resource string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.Conflict("%s already exists", resource)
	}
	return fmt.Errorf("%s store: %w", resource, err)
}

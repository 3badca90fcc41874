// internal/store/filters.go
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/firenoc-backend/internal/models"
)

type ApplicationFilter struct {
	Statuses            []models.ApplicationStatus
	ExcludeStatuses     []models.ApplicationStatus
	ApplicationType     models.ApplicationType
	Priority            models.Priority
	ApplicantID         *uuid.UUID
	AssignedTo          *uuid.UUID
	IsOverdue           *bool
	InspectionDueBefore *time.Time
	FollowUpDueBefore   *time.Time
}

func (f ApplicationFilter) Match(a *models.Application) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, a.Status) {
		return false
	}
	if f.ApplicationType != "" && a.ApplicationType != f.ApplicationType {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	if f.ApplicantID != nil && a.ApplicantID != *f.ApplicantID {
		return false
	}
	if f.AssignedTo != nil && (a.AssignedTo == nil || *a.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.IsOverdue != nil && a.IsOverdue != *f.IsOverdue {
		return false
	}
	if f.InspectionDueBefore != nil && !before(a.Deadlines.Inspection, *f.InspectionDueBefore) {
		return false
	}
	if f.FollowUpDueBefore != nil && !before(a.Deadlines.FollowUp, *f.FollowUpDueBefore) {
		return false
	}
	return true
}

func (f ApplicationFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}
	if f.ApplicationType != "" {
		q = q.Where("application_type = ?", f.ApplicationType)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.ApplicantID != nil {
		q = q.Where("applicant_id = ?", *f.ApplicantID)
	}
	if f.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.IsOverdue != nil {
		q = q.Where("is_overdue = ?", *f.IsOverdue)
	}
	if f.InspectionDueBefore != nil {
		q = q.Where("deadline_inspection < ?", *f.InspectionDueBefore)
	}
	if f.FollowUpDueBefore != nil {
		q = q.Where("deadline_follow_up < ?", *f.FollowUpDueBefore)
	}
	return q
}

type InspectionFilter struct {
	Status        models.InspectionStatus
	InspectorID   *uuid.UUID
	ApplicationID *uuid.UUID
}

func (f InspectionFilter) Match(i *models.Inspection) bool {
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.InspectorID != nil && i.InspectorID != *f.InspectorID {
		return false
	}
	if f.ApplicationID != nil && i.ApplicationID != *f.ApplicationID {
		return false
	}
	return true
}

func (f InspectionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InspectorID != nil {
		q = q.Where("inspector_id = ?", *f.InspectorID)
	}
	if f.ApplicationID != nil {
		q = q.Where("application_id = ?", *f.ApplicationID)
	}
	return q
}

type CertificateFilter struct {
	Status      models.CertificateStatus
	ApplicantID *uuid.UUID
	NOCType     models.NOCType
}

func (f CertificateFilter) Match(c *models.Certificate) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.ApplicantID != nil && c.ApplicantID != *f.ApplicantID {
		return false
	}
	if f.NOCType != "" && c.NOCType != f.NOCType {
		return false
	}
	return true
}

func (f CertificateFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ApplicantID != nil {
		q = q.Where("applicant_id = ?", *f.ApplicantID)
	}
	if f.NOCType != "" {
		q = q.Where("noc_type = ?", f.NOCType)
	}
	return q
}

type LicenseFilter struct {
	Status       models.LicenseStatus
	LicenseeID   *uuid.UUID
	LicenseType  models.LicenseType
	ReminderSent *bool
}

func (f LicenseFilter) Match(l *models.License) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.LicenseeID != nil && l.LicenseeID != *f.LicenseeID {
		return false
	}
	if f.LicenseType != "" && l.LicenseType != f.LicenseType {
		return false
	}
	if f.ReminderSent != nil && l.ReminderSent != *f.ReminderSent {
		return false
	}
	return true
}

func (f LicenseFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.LicenseeID != nil {
		q = q.Where("licensee_id = ?", *f.LicenseeID)
	}
	if f.LicenseType != "" {
		q = q.Where("license_type = ?", f.LicenseType)
	}
	if f.ReminderSent != nil {
		q = q.Where("reminder_sent = ?", *f.ReminderSent)
	}
	return q
}

type UserFilter struct {
	Role     models.UserRole
	IsActive *bool
}

func (f UserFilter) Match(u *models.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	return true
}

func (f UserFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	return q
}

func containsStatus(list []models.ApplicationStatus, s models.ApplicationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// before treats an absent deadline as never breached.
func before(t *time.Time, limit time.Time) bool {
	return t != nil && t.Before(limit)
}

// Bool returns a pointer to b, for filter fields.
func Bool(b bool) *bool {
	return &b
}

// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Base gives generic code access to the common fields.
func (b *BaseModel) Base() *BaseModel {
	return b
}

// Enums
type ApplicationStatus string

const (
	ApplicationStatusSubmitted           ApplicationStatus = "submitted"
	ApplicationStatusUnderReview         ApplicationStatus = "under_review"
	ApplicationStatusInspectionScheduled ApplicationStatus = "inspection_scheduled"
	ApplicationStatusInspectionCompleted ApplicationStatus = "inspection_completed"
	ApplicationStatusFollowUpRequired    ApplicationStatus = "follow_up_required"
	ApplicationStatusFollowUpCompleted   ApplicationStatus = "follow_up_completed"
	ApplicationStatusApproved            ApplicationStatus = "approved"
	ApplicationStatusRejected            ApplicationStatus = "rejected"
	ApplicationStatusNOCIssued           ApplicationStatus = "noc_issued"
	ApplicationStatusLicenseIssued       ApplicationStatus = "license_issued"
)

var applicationStatuses = map[ApplicationStatus]bool{
	ApplicationStatusSubmitted:           true,
	ApplicationStatusUnderReview:         true,
	ApplicationStatusInspectionScheduled: true,
	ApplicationStatusInspectionCompleted: true,
	ApplicationStatusFollowUpRequired:    true,
	ApplicationStatusFollowUpCompleted:   true,
	ApplicationStatusApproved:            true,
	ApplicationStatusRejected:            true,
	ApplicationStatusNOCIssued:           true,
	ApplicationStatusLicenseIssued:       true,
}

func (s ApplicationStatus) Valid() bool {
	return applicationStatuses[s]
}

// ClosedApplicationStatuses do not count toward an inspector's open load.
var ClosedApplicationStatuses = []ApplicationStatus{
	ApplicationStatusApproved,
	ApplicationStatusRejected,
	ApplicationStatusNOCIssued,
	ApplicationStatusLicenseIssued,
}

type ApplicationType string

const (
	ApplicationTypeFireInspection ApplicationType = "fire_inspection"
	ApplicationTypeNOC            ApplicationType = "noc"
	ApplicationTypeLicense        ApplicationType = "license"
	ApplicationTypeRenewal        ApplicationType = "renewal"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type PropertyType string

const (
	PropertyTypeResidential   PropertyType = "residential"
	PropertyTypeCommercial    PropertyType = "commercial"
	PropertyTypeIndustrial    PropertyType = "industrial"
	PropertyTypeInstitutional PropertyType = "institutional"
)

type InspectionStatus string

const (
	InspectionStatusScheduled   InspectionStatus = "scheduled"
	InspectionStatusInProgress  InspectionStatus = "in_progress"
	InspectionStatusCompleted   InspectionStatus = "completed"
	InspectionStatusRescheduled InspectionStatus = "rescheduled"
)

type ChecklistCategory string

const (
	ChecklistCategoryFireSafety        ChecklistCategory = "fire_safety"
	ChecklistCategoryElectrical        ChecklistCategory = "electrical"
	ChecklistCategoryStructural        ChecklistCategory = "structural"
	ChecklistCategoryEmergencyExits    ChecklistCategory = "emergency_exits"
	ChecklistCategoryFireExtinguishers ChecklistCategory = "fire_extinguishers"
	ChecklistCategoryAlarms            ChecklistCategory = "alarms"
)

type ComplianceStatus string

const (
	ComplianceStatusCompliant     ComplianceStatus = "compliant"
	ComplianceStatusNonCompliant  ComplianceStatus = "non_compliant"
	ComplianceStatusNotApplicable ComplianceStatus = "not_applicable"
)

type NOCType string

const (
	NOCTypeConstruction NOCType = "construction"
	NOCTypeOccupancy    NOCType = "occupancy"
	NOCTypeEvent        NOCType = "event"
	NOCTypeRenovation   NOCType = "renovation"
)

type CertificateStatus string

const (
	CertificateStatusActive    CertificateStatus = "active"
	CertificateStatusExpired   CertificateStatus = "expired"
	CertificateStatusRevoked   CertificateStatus = "revoked"
	CertificateStatusSuspended CertificateStatus = "suspended"
)

type LicenseType string

const (
	LicenseTypeFireSafety LicenseType = "fire_safety"
	LicenseTypeOccupancy  LicenseType = "occupancy"
	LicenseTypeBusiness   LicenseType = "business"
	LicenseTypeEvent      LicenseType = "event"
)

type LicenseStatus string

const (
	LicenseStatusActive         LicenseStatus = "active"
	LicenseStatusExpired        LicenseStatus = "expired"
	LicenseStatusSuspended      LicenseStatus = "suspended"
	LicenseStatusRevoked        LicenseStatus = "revoked"
	LicenseStatusRenewalPending LicenseStatus = "renewal_pending"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

type UserRole string

const (
	UserRoleCitizen   UserRole = "citizen"
	UserRoleInspector UserRole = "inspector"
	UserRoleAdmin     UserRole = "admin"
)

// IsStaff reports whether the role belongs to the fire office.
func (r UserRole) IsStaff() bool {
	return r == UserRoleInspector || r == UserRoleAdmin
}

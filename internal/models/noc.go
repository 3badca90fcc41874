// internal/models/noc.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Certificate is a fire No Objection Certificate.
type Certificate struct {
	BaseModel
	NOCNumber       string                              `json:"noc_number" gorm:"column:noc_number;size:20;not null;uniqueIndex"`
	ApplicationID   uuid.UUID                           `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	ApplicantID     uuid.UUID                           `json:"applicant_id" gorm:"type:uuid;not null;index"`
	PropertyDetails datatypes.JSONType[PropertyDetails] `json:"property_details" gorm:"type:jsonb"`
	NOCType         NOCType                             `json:"noc_type" gorm:"column:noc_type;type:varchar(20);not null"`
	IssuedBy        uuid.UUID                           `json:"issued_by" gorm:"type:uuid;not null"`
	IssuedDate      time.Time                           `json:"issued_date" gorm:"not null"`
	ValidUntil      time.Time                           `json:"valid_until" gorm:"not null;index"`
	Conditions      pq.StringArray                      `json:"conditions" gorm:"type:text[]"`
	Restrictions    pq.StringArray                      `json:"restrictions" gorm:"type:text[]"`
	Status          CertificateStatus                   `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	Remarks         string                              `json:"remarks,omitempty" gorm:"type:text"`
}

func (Certificate) TableName() string {
	return "noc_certificates"
}

func (c *Certificate) IsExpired(now time.Time) bool {
	return now.After(c.ValidUntil)
}

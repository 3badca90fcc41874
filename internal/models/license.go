// internal/models/license.go
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type License struct {
	BaseModel
	LicenseNumber   string                              `json:"license_number" gorm:"size:20;not null;uniqueIndex"`
	ApplicationID   uuid.UUID                           `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	LicenseeID      uuid.UUID                           `json:"licensee_id" gorm:"type:uuid;not null;index"`
	LicenseType     LicenseType                         `json:"license_type" gorm:"type:varchar(20);not null"`
	PropertyDetails datatypes.JSONType[PropertyDetails] `json:"property_details" gorm:"type:jsonb"`
	IssuedBy        uuid.UUID                           `json:"issued_by" gorm:"type:uuid;not null"`
	IssuedDate      time.Time                           `json:"issued_date" gorm:"not null"`
	ValidFrom       time.Time                           `json:"valid_from" gorm:"not null"`
	ValidUntil      time.Time                           `json:"valid_until" gorm:"not null;index"`
	Status          LicenseStatus                       `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	Conditions      pq.StringArray                      `json:"conditions" gorm:"type:text[]"`
	Restrictions    pq.StringArray                      `json:"restrictions" gorm:"type:text[]"`
	RenewalHistory  datatypes.JSONSlice[RenewalRecord]  `json:"renewal_history" gorm:"type:jsonb"`
	Fees            Fees                                `json:"fees" gorm:"embedded;embeddedPrefix:fee_"`
	ReminderSent    bool                                `json:"reminder_sent" gorm:"not null;index"`
	Remarks         string                              `json:"remarks,omitempty" gorm:"type:text"`
}

type RenewalRecord struct {
	RenewedAt      time.Time `json:"renewed_at"`
	PreviousExpiry time.Time `json:"previous_expiry"`
	NewExpiry      time.Time `json:"new_expiry"`
	RenewedBy      uuid.UUID `json:"renewed_by"`
}

type Fees struct {
	Amount        float64       `json:"amount" gorm:"type:decimal(12,2);not null;default:0"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty" gorm:"size:100"`
}

// IsEffectivelyActive reports whether the license is active and not past
// its expiry, regardless of whether the expiry sweep has run yet.
func (l *License) IsEffectivelyActive(now time.Time) bool {
	return l.Status == LicenseStatusActive && !now.After(l.ValidUntil)
}

// DaysUntilExpiry rounds partial days up.
func (l *License) DaysUntilExpiry(now time.Time) int {
	return int(math.Ceil(l.ValidUntil.Sub(now).Hours() / 24))
}

// NeedsRenewalReminder reports whether a renewal reminder is due for a
// reminder window of windowDays.
func (l *License) NeedsRenewalReminder(now time.Time, windowDays int) bool {
	if !l.IsEffectivelyActive(now) || l.ReminderSent {
		return false
	}
	days := l.DaysUntilExpiry(now)
	return days > 0 && days <= windowDays
}

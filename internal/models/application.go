// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Application struct {
	BaseModel
	ApplicationNumber string                              `json:"application_number" gorm:"size:20;not null;uniqueIndex"`
	ApplicationType   ApplicationType                     `json:"application_type" gorm:"type:varchar(30);not null"`
	ApplicantID       uuid.UUID                           `json:"applicant_id" gorm:"type:uuid;not null;index"`
	PropertyDetails   datatypes.JSONType[PropertyDetails] `json:"property_details" gorm:"type:jsonb;not null"`
	Documents         datatypes.JSONSlice[Document]       `json:"documents" gorm:"type:jsonb"`
	Status            ApplicationStatus                   `json:"status" gorm:"type:varchar(30);not null;default:'submitted';index"`
	Priority          Priority                            `json:"priority" gorm:"type:varchar(10);not null;default:'medium'"`
	AssignedTo        *uuid.UUID                          `json:"assigned_to,omitempty" gorm:"type:uuid;index"`
	InspectionID      *uuid.UUID                          `json:"inspection_id,omitempty" gorm:"type:uuid"`
	NOCID             *uuid.UUID                          `json:"noc_id,omitempty" gorm:"column:noc_id;type:uuid"`
	LicenseID         *uuid.UUID                          `json:"license_id,omitempty" gorm:"type:uuid"`
	Timeline          datatypes.JSONSlice[TimelineEntry]  `json:"timeline" gorm:"type:jsonb;not null"`
	Remarks           string                              `json:"remarks,omitempty" gorm:"type:text"`
	RejectionReason   string                              `json:"rejection_reason,omitempty" gorm:"type:text"`
	Deadlines         Deadlines                           `json:"deadlines" gorm:"embedded;embeddedPrefix:deadline_"`
	IsOverdue         bool                                `json:"is_overdue" gorm:"not null;index"`
}

type PropertyDetails struct {
	PropertyName   string       `json:"property_name" validate:"required"`
	PropertyType   PropertyType `json:"property_type" validate:"required,oneof=residential commercial industrial institutional"`
	Address        Address      `json:"address" validate:"required"`
	PlotArea       float64      `json:"plot_area,omitempty" validate:"gte=0"`
	BuiltUpArea    float64      `json:"built_up_area,omitempty" validate:"gte=0"`
	NumberOfFloors int          `json:"number_of_floors,omitempty" validate:"gte=0"`
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
}

// Document is a reference to a file held elsewhere.
type Document struct {
	Name       string    `json:"name" validate:"required"`
	URL        string    `json:"url" validate:"required,url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TimelineEntry is one append-only record of a status change.
type TimelineEntry struct {
	Status    ApplicationStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	UpdatedBy uuid.UUID         `json:"updated_by"`
	Remarks   string            `json:"remarks,omitempty"`
}

type Deadlines struct {
	Inspection    *time.Time `json:"inspection,omitempty"`
	FollowUp      *time.Time `json:"follow_up,omitempty"`
	FinalDecision *time.Time `json:"final_decision,omitempty"`
}

// Empty reports whether no deadline is set.
func (d Deadlines) Empty() bool {
	return d.Inspection == nil && d.FollowUp == nil && d.FinalDecision == nil
}

// IsClosed reports whether the application no longer counts as open work.
func (a *Application) IsClosed() bool {
	for _, s := range ClosedApplicationStatuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

// LastTimelineEntry returns the most recent timeline entry, if any.
func (a *Application) LastTimelineEntry() (TimelineEntry, bool) {
	if len(a.Timeline) == 0 {
		return TimelineEntry{}, false
	}
	return a.Timeline[len(a.Timeline)-1], true
}

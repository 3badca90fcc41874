// internal/models/inspection.go
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Inspection struct {
	BaseModel
	ApplicationID     uuid.UUID                          `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	InspectorID       uuid.UUID                          `json:"inspector_id" gorm:"type:uuid;not null;index"`
	InspectionDate    time.Time                          `json:"inspection_date" gorm:"not null"`
	Status            InspectionStatus                   `json:"status" gorm:"type:varchar(20);not null;default:'scheduled';index"`
	ChecklistItems    datatypes.JSONSlice[ChecklistItem] `json:"checklist_items" gorm:"type:jsonb"`
	OverallCompliance *int                               `json:"overall_compliance,omitempty"`
	Findings          datatypes.JSONType[Findings]       `json:"findings" gorm:"type:jsonb"`
	RequiresFollowUp  bool                               `json:"requires_follow_up" gorm:"not null"`
	FollowUpDeadline  *time.Time                         `json:"follow_up_deadline,omitempty"`
	InspectorRemarks  string                             `json:"inspector_remarks,omitempty" gorm:"type:text"`
	CompletedAt       *time.Time                         `json:"completed_at,omitempty"`
}

type ChecklistItem struct {
	Item     string            `json:"item" validate:"required"`
	Category ChecklistCategory `json:"category" validate:"required,oneof=fire_safety electrical structural emergency_exits fire_extinguishers alarms"`
	Status   ComplianceStatus  `json:"status" validate:"required,oneof=compliant non_compliant not_applicable"`
	Remarks  string            `json:"remarks,omitempty"`
	Photos   []string          `json:"photos,omitempty"`
}

type Findings struct {
	Compliant       []string `json:"compliant,omitempty"`
	NonCompliant    []string `json:"non_compliant,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// ComplianceScore is the rounded percentage of compliant items, or nil when
// there are no items.
func ComplianceScore(items []ChecklistItem) *int {
	if len(items) == 0 {
		return nil
	}
	compliant := 0
	for _, item := range items {
		if item.Status == ComplianceStatusCompliant {
			compliant++
		}
	}
	score := int(math.Round(100 * float64(compliant) / float64(len(items))))
	return &score
}

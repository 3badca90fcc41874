// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID        `json:"user_id" gorm:"type:uuid;index"`
	Action       string            `json:"action" gorm:"size:100;not null;index"`
	ResourceType string            `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID        `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    datatypes.JSONMap `json:"new_values" gorm:"type:jsonb"`
	StatusCode   int               `json:"status_code"`
	IPAddress    string            `json:"ip_address" gorm:"size:45"`
	UserAgent    string            `json:"user_agent" gorm:"type:text"`
}

// Notification is an in-app message addressed to a user, or to all staff
// when RecipientID is nil.
type Notification struct {
	BaseModel
	RecipientID  *uuid.UUID        `json:"recipient_id" gorm:"type:uuid;index"`
	Audience     string            `json:"audience" gorm:"type:varchar(10);not null;index"`
	Kind         string            `json:"kind" gorm:"type:varchar(50);not null;index"`
	Title        string            `json:"title" gorm:"size:255;not null"`
	Message      string            `json:"message" gorm:"type:text;not null"`
	ResourceType string            `json:"resource_type,omitempty" gorm:"size:50"`
	ResourceID   *uuid.UUID        `json:"resource_id,omitempty" gorm:"type:uuid"`
	Data         datatypes.JSONMap `json:"data,omitempty" gorm:"type:jsonb"`
	ReadAt       *time.Time        `json:"read_at"`
}

// Sequence backs atomic document-number allocation.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:20"`
	Value int64  `gorm:"not null"`
}

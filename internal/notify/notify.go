// internal/notify/notify.go
package notify

//go:generate mockgen -source=notify.go -destination=mocks/mock_dispatcher.go -package=mocks Dispatcher

import (
	"context"

	"github.com/google/uuid"
)

type Audience string

const (
	AudienceUser  Audience = "user"
	AudienceStaff Audience = "staff"
)

type Kind string

const (
	KindApplicationSubmitted Kind = "application_submitted"
	KindNewApplication       Kind = "new_application"
	KindStatusUpdate         Kind = "status_update"
	KindAssignment           Kind = "assignment"
	KindInspectionScheduled  Kind = "inspection_scheduled"
	KindFollowUp             Kind = "follow_up"
	KindNOCIssued            Kind = "noc_issued"
	KindNOCRevoked           Kind = "noc_revoked"
	KindLicenseIssued        Kind = "license_issued"
	KindLicenseRevoked       Kind = "license_revoked"
	KindOverdue              Kind = "overdue"
	KindRenewalReminder      Kind = "renewal_reminder"
)

// Notification is a channel-independent message. Staff notifications carry
// no RecipientID and go to every staff member.
type Notification struct {
	RecipientID  *uuid.UUID     `json:"recipient_id,omitempty"`
	Audience     Audience       `json:"audience"`
	Kind         Kind           `json:"kind"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID     `json:"resource_id,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// ToUser addresses a notification to a single user.
func ToUser(recipient uuid.UUID, kind Kind, title, message string) Notification {
	return Notification{
		RecipientID: &recipient,
		Audience:    AudienceUser,
		Kind:        kind,
		Title:       title,
		Message:     message,
	}
}

// ToStaff addresses a notification to all staff.
func ToStaff(kind Kind, title, message string) Notification {
	return Notification{
		Audience: AudienceStaff,
		Kind:     kind,
		Title:    title,
		Message:  message,
	}
}

// About attaches the resource the notification refers to.
func (n Notification) About(resourceType string, id uuid.UUID) Notification {
	n.ResourceType = resourceType
	n.ResourceID = &id
	return n
}

// With attaches extra payload for channels that carry structured data.
func (n Notification) With(data map[string]any) Notification {
	n.Data = data
	return n
}

// Dispatcher delivers notifications. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n Notification) error

func (f DispatcherFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Nop discards every notification.
var Nop Dispatcher = DispatcherFunc(func(context.Context, Notification) error { return nil })

// internal/notify/inapp.go
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
)

// InAppDispatcher persists notifications so users can read them later.
type InAppDispatcher struct {
	db *gorm.DB
}

func NewInAppDispatcher(db *gorm.DB) *InAppDispatcher {
	return &InAppDispatcher{db: db}
}

func (d *InAppDispatcher) Notify(ctx context.Context, n Notification) error {
	row := &models.Notification{
		RecipientID:  n.RecipientID,
		Audience:     string(n.Audience),
		Kind:         string(n.Kind),
		Title:        n.Title,
		Message:      n.Message,
		ResourceType: n.ResourceType,
		ResourceID:   n.ResourceID,
		Data:         n.Data,
	}
	if err := d.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// Inbox lists a user's notifications, newest first. Staff also see
// notifications addressed to all staff.
func (d *InAppDispatcher) Inbox(ctx context.Context, userID uuid.UUID, staff bool, limit, offset int) ([]models.Notification, int64, error) {
	query := d.db.WithContext(ctx).Model(&models.Notification{})
	if staff {
		query = query.Where("recipient_id = ? OR audience = ?", userID, AudienceStaff)
	} else {
		query = query.Where("recipient_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return rows, total, nil
}

// MarkRead stamps a notification addressed to userID as read.
func (d *InAppDispatcher) MarkRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error {
	result := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("Notification")
	}
	return nil
}

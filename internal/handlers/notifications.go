// internal/handlers/notifications.go
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

// Inbox is the stored notification feed.
type Inbox interface {
	Inbox(ctx context.Context, userID uuid.UUID, staff bool, limit, offset int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error
}

type NotificationHandler struct {
	inbox Inbox
	hub   *notify.Hub
	clock clock.PassiveClock
}

func NewNotificationHandler(inbox Inbox, hub *notify.Hub, clk clock.PassiveClock) *NotificationHandler {
	return &NotificationHandler{
		inbox: inbox,
		hub:   hub,
		clock: clk,
	}
}

// GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	window := params.Window()
	notifications, total, err := h.inbox.Inbox(c.Request.Context(), user.ID, user.staff(), window.Limit, window.Offset)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params))
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), id, user.ID, h.clock.Now()); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Notification marked as read",
	})
}

// GET /ws
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	h.hub.ServeWS(c.Writer, c.Request, user.ID, user.staff())
}

// internal/handlers/admin.go
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/scheduler"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

// SweepRunner runs a named sweep under the same lock the scheduler uses.
type SweepRunner interface {
	Exclusive(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type AdminHandler struct {
	adminService *services.AdminService
	sweeper      scheduler.Sweeper
	runner       SweepRunner
	clock        clock.PassiveClock
	reminderDays int
}

func NewAdminHandler(adminService *services.AdminService, sweeper scheduler.Sweeper, runner SweepRunner, clk clock.PassiveClock, reminderDays int) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		sweeper:      sweeper,
		runner:       runner,
		clock:        clk,
		reminderDays: reminderDays,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context(), h.clock.Now(), h.reminderDays)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.AuditLogFilter{
		PaginationParams: params,
		UserID:           queryUUID(c, "user_id"),
		ResourceType:     c.Query("resource_type"),
		Action:           c.Query("action"),
	}
	if createdAfter := c.Query("created_after"); createdAfter != "" {
		if t, err := time.Parse("2006-01-02", createdAfter); err == nil {
			filter.CreatedAfter = &t
		}
	}

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

// POST /admin/sweeps/:sweep
func (h *AdminHandler) RunSweep(c *gin.Context) {
	name := c.Param("sweep")

	var result gin.H
	var run func(ctx context.Context) error
	switch name {
	case services.SweepOverdue:
		run = func(ctx context.Context) error {
			flagged, err := h.sweeper.CheckOverdueApplications(ctx)
			result = gin.H{"flagged": flagged}
			return err
		}
	case services.SweepExpiry:
		run = func(ctx context.Context) error {
			expired, err := h.sweeper.ExpireDocuments(ctx)
			result = gin.H{"certificates": expired.Certificates, "licenses": expired.Licenses}
			return err
		}
	case services.SweepReminders:
		run = func(ctx context.Context) error {
			sent, err := h.sweeper.SendRenewalReminders(ctx)
			result = gin.H{"reminders_sent": sent}
			return err
		}
	default:
		utils.NotFoundResponse(c, "Sweep not found")
		return
	}

	if err := h.runner.Exclusive(c.Request.Context(), name, run); err != nil {
		utils.RespondError(c, err)
		return
	}

	result["sweep"] = name
	utils.SuccessResponse(c, result)
}

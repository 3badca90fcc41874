// internal/handlers/applications.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// POST /applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	var req services.CreateApplicationRequest
	if !bind(c, &req) {
		return
	}

	application, err := h.applicationService.CreateApplication(c.Request.Context(), user.ID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     "Application submitted",
		"application": application,
	})
}

// GET /applications
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	// Parse filters
	filter := store.ApplicationFilter{
		ApplicationType: models.ApplicationType(c.Query("application_type")),
		Priority:        models.Priority(c.Query("priority")),
		AssignedTo:      queryUUID(c, "assigned_to"),
		IsOverdue:       queryBool(c, "overdue"),
	}
	if status := c.Query("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			filter.Statuses = append(filter.Statuses, models.ApplicationStatus(strings.TrimSpace(s)))
		}
	}

	// Citizens only ever see their own applications
	if user.staff() {
		filter.ApplicantID = queryUUID(c, "applicant_id")
	} else {
		filter.ApplicantID = &user.ID
	}

	applications, total, err := h.applicationService.ListApplications(c.Request.Context(), filter, params.Window())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(applications, total, params))
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	application, err := h.applicationService.GetApplication(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !user.owns(application.ApplicantID) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": application,
	})
}

// PUT /applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	var req services.UpdateStatusRequest
	if !bind(c, &req) {
		return
	}

	application, err := h.applicationService.UpdateStatus(c.Request.Context(), id, req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "Application status updated",
		"application": application,
	})
}

type assignRequest struct {
	InspectorID uuid.UUID `json:"inspector_id" validate:"required"`
}

// PUT /applications/:id/assign
func (h *ApplicationHandler) AssignApplication(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	var req assignRequest
	if !bind(c, &req) {
		return
	}

	application, err := h.applicationService.AssignApplication(c.Request.Context(), id, req.InspectorID, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "Application assigned",
		"application": application,
	})
}

// POST /applications/:id/auto-assign
func (h *ApplicationHandler) AutoAssign(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	application, err := h.applicationService.AutoAssign(c.Request.Context(), id, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	// No active inspector leaves the application untouched
	utils.SuccessResponse(c, gin.H{
		"assigned":    application.AssignedTo != nil,
		"application": application,
	})
}

// PUT /applications/:id/follow-up
func (h *ApplicationHandler) UpdateFollowUp(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	var req services.FollowUpRequest
	if !bind(c, &req) {
		return
	}

	application, err := h.applicationService.UpdateFollowUp(c.Request.Context(), id, req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "Follow-up recorded",
		"application": application,
	})
}

// DELETE /applications/:id
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id, ok := parseID(c, "id", "application")
	if !ok {
		return
	}

	if err := h.applicationService.DeleteApplication(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Application deleted",
	})
}

// internal/handlers/inspections.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

type InspectionHandler struct {
	inspectionService *services.InspectionService
}

func NewInspectionHandler(inspectionService *services.InspectionService) *InspectionHandler {
	return &InspectionHandler{
		inspectionService: inspectionService,
	}
}

// POST /inspections
func (h *InspectionHandler) ScheduleInspection(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	var req services.ScheduleInspectionRequest
	if !bind(c, &req) {
		return
	}

	inspection, err := h.inspectionService.ScheduleInspection(c.Request.Context(), req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    "Inspection scheduled",
		"inspection": inspection,
	})
}

// GET /inspections
func (h *InspectionHandler) GetInspections(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := store.InspectionFilter{
		Status:        models.InspectionStatus(c.Query("status")),
		InspectorID:   queryUUID(c, "inspector_id"),
		ApplicationID: queryUUID(c, "application_id"),
	}

	inspections, total, err := h.inspectionService.ListInspections(c.Request.Context(), filter, params.Window())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(inspections, total, params))
}

// GET /inspections/:id
func (h *InspectionHandler) GetInspection(c *gin.Context) {
	id, ok := parseID(c, "id", "inspection")
	if !ok {
		return
	}

	inspection, err := h.inspectionService.GetInspection(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"inspection": inspection,
	})
}

// PUT /inspections/:id
func (h *InspectionHandler) UpdateInspection(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "inspection")
	if !ok {
		return
	}

	var req services.UpdateInspectionRequest
	if !bind(c, &req) {
		return
	}

	inspection, err := h.inspectionService.UpdateInspection(c.Request.Context(), id, req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    "Inspection updated",
		"inspection": inspection,
	})
}

// PUT /inspections/:id/reschedule
func (h *InspectionHandler) RescheduleInspection(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "inspection")
	if !ok {
		return
	}

	var req services.RescheduleInspectionRequest
	if !bind(c, &req) {
		return
	}

	inspection, err := h.inspectionService.RescheduleInspection(c.Request.Context(), id, req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    "Inspection rescheduled",
		"inspection": inspection,
	})
}

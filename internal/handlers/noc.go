// internal/handlers/noc.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

type NOCHandler struct {
	nocService *services.NOCService
}

func NewNOCHandler(nocService *services.NOCService) *NOCHandler {
	return &NOCHandler{
		nocService: nocService,
	}
}

// POST /nocs
func (h *NOCHandler) IssueNOC(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	var req services.IssueNOCRequest
	if !bind(c, &req) {
		return
	}

	noc, err := h.nocService.IssueNOC(c.Request.Context(), req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "NOC issued",
		"noc":     noc,
	})
}

// GET /nocs
func (h *NOCHandler) GetNOCs(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := store.CertificateFilter{
		Status:  models.CertificateStatus(c.Query("status")),
		NOCType: models.NOCType(c.Query("noc_type")),
	}
	if user.staff() {
		filter.ApplicantID = queryUUID(c, "applicant_id")
	} else {
		filter.ApplicantID = &user.ID
	}

	nocs, total, err := h.nocService.ListNOCs(c.Request.Context(), filter, params.Window())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(nocs, total, params))
}

// GET /nocs/:id
func (h *NOCHandler) GetNOC(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "NOC")
	if !ok {
		return
	}

	noc, err := h.nocService.GetNOC(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !user.owns(noc.ApplicantID) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"noc": noc,
	})
}

// PUT /nocs/:id/revoke
func (h *NOCHandler) RevokeNOC(c *gin.Context) {
	h.changeStatus(c, h.nocService.RevokeNOC, "NOC revoked")
}

// PUT /nocs/:id/suspend
func (h *NOCHandler) SuspendNOC(c *gin.Context) {
	h.changeStatus(c, h.nocService.SuspendNOC, "NOC suspended")
}

func (h *NOCHandler) changeStatus(c *gin.Context, apply statusChange[models.Certificate], message string) {
	noc, ok := runStatusChange(c, "NOC", apply)
	if !ok {
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": message,
		"noc":     noc,
	})
}

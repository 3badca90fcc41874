// internal/handlers/licenses.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/store"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// POST /licenses
func (h *LicenseHandler) IssueLicense(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	var req services.IssueLicenseRequest
	if !bind(c, &req) {
		return
	}

	license, err := h.licenseService.IssueLicense(c.Request.Context(), req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "License issued",
		"license": license,
	})
}

// GET /licenses
func (h *LicenseHandler) GetLicenses(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := store.LicenseFilter{
		Status:       models.LicenseStatus(c.Query("status")),
		LicenseType:  models.LicenseType(c.Query("license_type")),
		ReminderSent: queryBool(c, "reminder_sent"),
	}
	if user.staff() {
		filter.LicenseeID = queryUUID(c, "licensee_id")
	} else {
		filter.LicenseeID = &user.ID
	}

	licenses, total, err := h.licenseService.ListLicenses(c.Request.Context(), filter, params.Window())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(licenses, total, params))
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "license")
	if !ok {
		return
	}

	license, err := h.licenseService.GetLicense(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !user.owns(license.LicenseeID) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license": license,
	})
}

// PUT /licenses/:id/renew
func (h *LicenseHandler) RenewLicense(c *gin.Context) {
	user, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "license")
	if !ok {
		return
	}

	var req services.RenewLicenseRequest
	if !bind(c, &req) {
		return
	}

	license, err := h.licenseService.RenewLicense(c.Request.Context(), id, req, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "License renewed",
		"license": license,
	})
}

// PUT /licenses/:id/suspend
func (h *LicenseHandler) SuspendLicense(c *gin.Context) {
	license, ok := runStatusChange[models.License](c, "license", h.licenseService.SuspendLicense)
	if !ok {
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": "License suspended",
		"license": license,
	})
}

// PUT /licenses/:id/revoke
func (h *LicenseHandler) RevokeLicense(c *gin.Context) {
	license, ok := runStatusChange[models.License](c, "license", h.licenseService.RevokeLicense)
	if !ok {
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": "License revoked",
		"license": license,
	})
}

// GET /verify/licenses/:id (public)
func (h *LicenseHandler) VerifyLicense(c *gin.Context) {
	id, ok := parseID(c, "id", "license")
	if !ok {
		return
	}

	verification, err := h.licenseService.VerifyLicense(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, verification)
}

// internal/handlers/handlers.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

// caller is the authenticated user behind a request.
type caller struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (c caller) staff() bool {
	return c.Role.IsStaff()
}

// owns reports whether the caller may see a record belonging to owner.
func (c caller) owns(owner uuid.UUID) bool {
	return c.staff() || c.ID == owner
}

func currentCaller(c *gin.Context) (caller, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return caller{}, false
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return caller{ID: userID, Role: role}, true
}

func parseID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes the JSON body into req and runs struct validation.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// queryUUID parses an optional UUID query parameter. Malformed values are
// ignored.
func queryUUID(c *gin.Context, key string) *uuid.UUID {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func queryBool(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// statusChange is a revoke or suspend operation on a certificate or license.
type statusChange[T any] func(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*T, error)

func runStatusChange[T any](c *gin.Context, label string, apply statusChange[T]) (*T, bool) {
	user, ok := currentCaller(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id", label)
	if !ok {
		return nil, false
	}

	var req reasonRequest
	if !bind(c, &req) {
		return nil, false
	}

	record, err := apply(c.Request.Context(), id, req.Reason, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return nil, false
	}
	return record, true
}

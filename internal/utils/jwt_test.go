// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/firenoc-backend/internal/models"
)

func TestJWTRoundTripCarriesRole(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, err := GenerateJWT(id, "Meera", models.UserRoleInspector, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, models.UserRoleInspector, claims.Role)
	assert.Equal(t, "firenoc", claims.Issuer)
}

func TestJWTRejectsOtherSecretAndExpiry(t *testing.T) {
	SetJWTSecret("first")
	token, err := GenerateJWT(uuid.New(), "a", models.UserRoleAdmin, 1)
	require.NoError(t, err)

	SetJWTSecret("second")
	_, err = ValidateJWT(token)
	assert.Error(t, err)

	expired, err := GenerateJWT(uuid.New(), "a", models.UserRoleAdmin, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	var validationErr *jwt.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotZero(t, validationErr.Errors&jwt.ValidationErrorExpired)
}

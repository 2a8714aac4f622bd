package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-signing-key", "solidarlink-test")
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, id.RoleVolunteer, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "VOLUNTEER", claims.Role)
	assert.Equal(t, "solidarlink-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "jti must be set for revocation")
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key", "solidarlink-test")

	token, err := svc.GenerateAccessToken(id.NewUserID(), id.RoleCitizen, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issued := NewService("key-one", "solidarlink-test")
	verifier := NewService("key-two", "solidarlink-test")

	token, err := issued.GenerateAccessToken(id.NewUserID(), id.RoleCitizen, time.Minute)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "solidarlink-test")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "token %q", token)
	}
}

package services_test

import (
	"testing"
	"time"

	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := services.NewTokenService("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Username: "admin", IsStaff: true}

	resp, err := svc.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := svc.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.Staff)
	assert.Equal(t, resp.TokenID, claims.ID)
}

func TestTokenService_RejectsNonStaff(t *testing.T) {
	svc := services.NewTokenService("test-secret", time.Hour)

	_, err := svc.Issue(&models.User{ID: uuid.New(), Username: "shopper"})
	assert.ErrorIs(t, err, services.ErrNotStaff)
}

func TestTokenService_ParseFailures(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "admin", IsStaff: true}

	resp, err := services.NewTokenService("secret-a", time.Hour).Issue(user)
	require.NoError(t, err)
	_, err = services.NewTokenService("secret-b", time.Hour).Parse(resp.AccessToken)
	assert.Error(t, err, "signature from another key must not verify")

	expired, err := services.NewTokenService("secret-a", -time.Minute).Issue(user)
	require.NoError(t, err)
	_, err = services.NewTokenService("secret-a", time.Hour).Parse(expired.AccessToken)
	assert.Error(t, err)

	_, err = services.NewTokenService("secret-a", time.Hour).Parse("not-a-jwt")
	assert.Error(t, err)
}

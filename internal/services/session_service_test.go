package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"plugshop/internal/models"
	"plugshop/internal/services"
	"plugshop/testhelpers/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_LoginRotatesKey(t *testing.T) {
	cache := new(mocks.CacheService)
	users := new(mocks.UserRepository)
	svc := services.NewSessionService(cache, users, 0)
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Username: "gamer_01"}
	previous := "0123456789abcdefghijklmnopqrstuv"

	cache.On("DeleteSession", mock.Anything, previous).Return(nil).Once()
	cache.On("SetSession", mock.Anything, mock.AnythingOfType("string"), user.ID, services.DefaultSessionAge).Return(nil).Once()
	users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	key, err := svc.Login(ctx, user, previous)
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.NotEqual(t, previous, key)
	assert.NotNil(t, user.LastLogin)

	cache.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSessionService_LoginFailsWhenSessionCannotBeStored(t *testing.T) {
	cache := new(mocks.CacheService)
	users := new(mocks.UserRepository)
	svc := services.NewSessionService(cache, users, time.Hour)
	user := &models.User{ID: uuid.New()}

	cache.On("SetSession", mock.Anything, mock.Anything, user.ID, time.Hour).Return(errors.New("redis down")).Once()

	_, err := svc.Login(context.Background(), user, "")
	assert.Error(t, err)
	users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	assert.Nil(t, user.LastLogin)
}

func TestSessionService_UserID(t *testing.T) {
	cache := new(mocks.CacheService)
	svc := services.NewSessionService(cache, new(mocks.UserRepository), 0)
	ctx := context.Background()
	userID := uuid.New()
	key := "abcdefghijklmnopqrstuvwxyz012345"

	cache.On("GetSession", mock.Anything, key).Return(userID, nil).Once()

	got, err := svc.UserID(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	got, err = svc.UserID(ctx, "too-short")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)

	cache.AssertExpectations(t)
}

func TestSessionService_Logout(t *testing.T) {
	cache := new(mocks.CacheService)
	svc := services.NewSessionService(cache, new(mocks.UserRepository), 0)

	cache.On("DeleteSession", mock.Anything, "some-key").Return(nil).Once()

	assert.NoError(t, svc.Logout(context.Background(), "some-key"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
	cache.AssertExpectations(t)
}

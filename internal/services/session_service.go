package services

import (
	"context"
	"fmt"
	"time"

	"plugshop/internal/caching"
	"plugshop/internal/models"
	"plugshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookieName = "sessionid"
	DefaultSessionAge = 14 * 24 * time.Hour

	sessionKeyLength = 32
)

// SessionService keeps server side sessions in redis, keyed by the cookie value.
type SessionService interface {
	// Login starts a fresh session for user and returns its key. previousKey,
	// when set, is discarded so the key never survives a login.
	Login(ctx context.Context, user *models.User, previousKey string) (string, error)
	Logout(ctx context.Context, key string) error
	// UserID resolves a session key, returning uuid.Nil for unknown or expired keys.
	UserID(ctx context.Context, key string) (uuid.UUID, error)
	MaxAge() time.Duration
}

type sessionService struct {
	cache caching.CacheService
	users repositories.UserRepository
	age   time.Duration
	now   func() time.Time
}

func NewSessionService(cache caching.CacheService, users repositories.UserRepository, age time.Duration) SessionService {
	if age <= 0 {
		age = DefaultSessionAge
	}
	return &sessionService{cache: cache, users: users, age: age, now: time.Now}
}

func (s *sessionService) Login(ctx context.Context, user *models.User, previousKey string) (string, error) {
	if previousKey != "" {
		if err := s.cache.DeleteSession(ctx, previousKey); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to drop previous session")
		}
	}

	key := random.String(sessionKeyLength, random.Lowercase, random.Numeric)
	if err := s.cache.SetSession(ctx, key, user.ID, s.age); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	} else {
		user.LastLogin = &now
	}

	return key, nil
}

func (s *sessionService) Logout(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.cache.DeleteSession(ctx, key)
}

func (s *sessionService) UserID(ctx context.Context, key string) (uuid.UUID, error) {
	if len(key) != sessionKeyLength {
		return uuid.Nil, nil
	}
	return s.cache.GetSession(ctx, key)
}

func (s *sessionService) MaxAge() time.Duration {
	return s.age
}

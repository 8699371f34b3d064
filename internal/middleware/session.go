package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"plugshop/internal/common"
	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionMiddleware resolves the session cookie into the signed in user.
type SessionMiddleware struct {
	sessions services.SessionService
	users    services.UserService
}

func NewSessionMiddleware(sessions services.SessionService, users services.UserService) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, users: users}
}

// LoadUser never rejects a request; a missing or stale session just leaves it anonymous.
func (m *SessionMiddleware) LoadUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(services.SessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		userID, err := m.sessions.UserID(ctx, cookie.Value)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("session lookup failed")
			return next(c)
		}
		if userID == uuid.Nil {
			return next(c)
		}

		user, err := m.users.GetByID(ctx, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Ctx(ctx).Error().Err(err).Msg("failed to load session user")
			}
			return next(c)
		}
		if !user.IsActive {
			return next(c)
		}

		c.SetRequest(c.Request().WithContext(common.WithUser(ctx, user)))
		return next(c)
	}
}

// LoginRequired redirects anonymous requests to loginURL, carrying the current path in next.
func LoginRequired(loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if common.CurrentUser(c.Request().Context()) == nil {
				target := loginURL + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

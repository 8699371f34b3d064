package handlers

import (
	"errors"
	"net/http"

	"plugshop/internal/caching"
	"plugshop/internal/common"
	"plugshop/internal/forms"
	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TokenHandlers issues bearer tokens for the admin API.
type TokenHandlers struct {
	users  services.UserService
	tokens services.TokenService
	cache  caching.CacheService
	// limit is the number of token requests allowed per client IP per minute. 0 disables it.
	limit int
}

func NewTokenHandlers(users services.UserService, tokens services.TokenService, cache caching.CacheService, limit int) *TokenHandlers {
	return &TokenHandlers{users: users, tokens: tokens, cache: cache, limit: limit}
}

func (h *TokenHandlers) IssueToken(c echo.Context) error {
	ctx := c.Request().Context()

	if overLimit(c, h.cache, "token", h.limit) {
		return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", msgTooManyAttempts, nil))
	}

	var form forms.LoginForm
	if err := c.Bind(&form); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if errs := form.Validate(); !errs.Valid() {
		return common.SendValidationErrors(c, errs.Flatten())
	}

	user, err := h.users.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", forms.MsgInvalidLogin, nil))
		}
		log.Ctx(ctx).Error().Err(err).Msg("token authentication failed")
		return common.SendServerError(c, "Failed to authenticate")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		if errors.Is(err, services.ErrNotStaff) {
			return common.SendForbiddenError(c)
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to issue token")
		return common.SendServerError(c, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, token)
}

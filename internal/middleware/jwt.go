package middleware

import (
	"errors"

	"plugshop/internal/common"
	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// StaffJWT validates the bearer token on admin API requests and stores the
// parsed claims under common.StaffClaimsKey.
func StaffJWT(tokens services.TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: common.StaffClaimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.Parse(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	})
}

// RequireStaff re-checks the token subject against the database so that
// deactivated or demoted accounts lose access before their token expires.
func RequireStaff(users services.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(common.StaffClaimsKey).(*services.StaffClaims)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return common.SendUnauthorizedError(c)
			}

			ctx := c.Request().Context()
			user, err := users.GetByID(ctx, userID)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					log.Ctx(ctx).Error().Err(err).Msg("failed to load token subject")
					return common.SendServerError(c, "Failed to verify credentials")
				}
				return common.SendUnauthorizedError(c)
			}
			if !user.IsActive {
				return common.SendUnauthorizedError(c)
			}
			if !user.IsStaff {
				return common.SendForbiddenError(c)
			}

			c.SetRequest(c.Request().WithContext(common.WithUser(ctx, user)))
			return next(c)
		}
	}
}

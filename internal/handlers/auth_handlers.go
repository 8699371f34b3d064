package handlers

import (
	"errors"
	"net/http"
	"time"

	"plugshop/internal/caching"
	"plugshop/internal/common"
	"plugshop/internal/forms"
	"plugshop/internal/models"
	"plugshop/internal/services"
	"plugshop/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const msgTooManyAttempts = "Too many login attempts. Please try again later."

type AuthConfig struct {
	LoginRedirectURL string
	SecureCookies    bool
	// LoginRateLimit is the number of login posts allowed per client IP per minute. 0 disables it.
	LoginRateLimit int
}

// AuthHandlers serves the account pages: registration, login, logout and profile.
type AuthHandlers struct {
	users    services.UserService
	sessions services.SessionService
	cache    caching.CacheService
	cfg      AuthConfig
}

func NewAuthHandlers(users services.UserService, sessions services.SessionService, cache caching.CacheService, cfg AuthConfig) *AuthHandlers {
	if cfg.LoginRedirectURL == "" {
		cfg.LoginRedirectURL = "/accounts/profile/"
	}
	return &AuthHandlers{users: users, sessions: sessions, cache: cache, cfg: cfg}
}

func (h *AuthHandlers) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, web.RegisterTemplate, newPage(c, "Register"))
}

// Register creates the account and sends the visitor to the login page.
func (h *AuthHandlers) Register(c echo.Context) error {
	var form forms.RegisterForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}

	ctx := c.Request().Context()
	_, errs, err := h.users.Register(ctx, &form)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("registration failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	if !errs.Valid() {
		data := newPage(c, "Register")
		data.Values = map[string]string{"username": form.Username, "email": form.Email}
		data.Errors = errs
		return c.Render(http.StatusOK, web.RegisterTemplate, data)
	}

	return c.Redirect(http.StatusFound, reverse(c, "login", "/accounts/login/"))
}

func (h *AuthHandlers) LoginPage(c echo.Context) error {
	data := newPage(c, "Log in")
	data.Next = c.QueryParam("next")
	return c.Render(http.StatusOK, web.LoginTemplate, data)
}

// Login checks the credentials and starts a session.
func (h *AuthHandlers) Login(c echo.Context) error {
	var form forms.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission")
	}

	ctx := c.Request().Context()
	data := newPage(c, "Log in")
	data.Next = form.Next

	if h.rateLimited(c) {
		data.Values = map[string]string{"username": form.Username}
		data.Errors = forms.Errors{}
		data.Errors.Add(forms.NonFieldErrors, msgTooManyAttempts)
		return c.Render(http.StatusTooManyRequests, web.LoginTemplate, data)
	}

	errs := form.Validate()
	data.Values = map[string]string{"username": form.Username}
	if !errs.Valid() {
		data.Errors = errs
		return c.Render(http.StatusOK, web.LoginTemplate, data)
	}

	user, err := h.users.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			data.Errors = forms.InvalidLogin()
			return c.Render(http.StatusOK, web.LoginTemplate, data)
		}
		log.Ctx(ctx).Error().Err(err).Msg("authentication failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	previous := ""
	if cookie, err := c.Cookie(services.SessionCookieName); err == nil {
		previous = cookie.Value
	}

	key, err := h.sessions.Login(ctx, user, previous)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to start session")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	c.SetCookie(h.sessionCookie(key, h.sessions.MaxAge()))
	log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return c.Redirect(http.StatusFound, h.redirectTarget(form.Next))
}

func (h *AuthHandlers) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(services.SessionCookieName); err == nil {
		if err := h.sessions.Logout(c.Request().Context(), cookie.Value); err != nil {
			log.Ctx(c.Request().Context()).Warn().Err(err).Msg("failed to delete session")
		}
	}

	expired := h.sessionCookie("", 0)
	expired.MaxAge = -1
	expired.Expires = time.Unix(0, 0)
	c.SetCookie(expired)

	return c.Redirect(http.StatusFound, reverse(c, "home", "/"))
}

func (h *AuthHandlers) Profile(c echo.Context) error {
	return c.Render(http.StatusOK, web.ProfileTemplate, newPage(c, "Profile"))
}

func (h *AuthHandlers) rateLimited(c echo.Context) bool {
	return overLimit(c, h.cache, "login", h.cfg.LoginRateLimit)
}

// overLimit counts a credential attempt from the client IP under scope. A cache
// failure lets the request through.
func overLimit(c echo.Context, cache caching.CacheService, scope string, limit int) bool {
	if limit <= 0 || cache == nil {
		return false
	}
	ctx := c.Request().Context()
	limited, err := cache.IsRateLimited(ctx, scope+":"+c.RealIP(), limit, time.Minute)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("scope", scope).Msg("rate limit check failed")
		return false
	}
	return limited
}

func (h *AuthHandlers) redirectTarget(next string) string {
	if common.IsSafeRedirect(next) {
		return next
	}
	return h.cfg.LoginRedirectURL
}

func (h *AuthHandlers) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     services.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// newPage fills the fields every page template needs.
func newPage(c echo.Context, title string) web.PageData {
	token, _ := c.Get("csrf").(string)
	return web.PageData{
		Title:     title,
		User:      common.CurrentUser(c.Request().Context()),
		CSRFToken: token,
	}
}

// reverse resolves a named route, falling back to path when the route is not registered.
func reverse(c echo.Context, name, path string) string {
	if url := c.Echo().Reverse(name); url != "" {
		return url
	}
	return path
}

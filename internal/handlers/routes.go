package handlers

import (
	"net/http"
	"strings"

	"plugshop/internal/middleware"
	"plugshop/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const loginPath = "/accounts/login/"

// Router owns every handler set and knows how they are mounted.
type Router struct {
	Auth     *AuthHandlers
	Home     *HomeHandlers
	Carousel *CarouselHandlers
	Token    *TokenHandlers
	Health   *HealthHandlers

	Sessions services.SessionService
	Tokens   services.TokenService
	Users    services.UserService

	Version string
	// UploadLimit bounds admin request bodies, e.g. "6M".
	UploadLimit string
	// TrustProxy takes the client IP from X-Forwarded-For. Only enable it behind a proxy that overwrites the header.
	TrustProxy bool
}

// Register mounts all routes on e. web is applied to the HTML pages only (CSRF in production).
func (r *Router) Register(e *echo.Echo, web ...echo.MiddlewareFunc) {
	// Rate limits key on RealIP, so it must not come from client-controlled headers.
	e.IPExtractor = echo.ExtractIPDirect()
	if r.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	// 308 keeps the method and body, so a POST to /accounts/login still logs in.
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		RedirectCode: http.StatusPermanentRedirect,
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/accounts")
		},
	}))

	session := middleware.NewSessionMiddleware(r.Sessions, r.Users)
	pages := append([]echo.MiddlewareFunc{session.LoadUser}, web...)
	withLogin := append(append([]echo.MiddlewareFunc{}, pages...), middleware.LoginRequired(loginPath))

	e.GET("/", r.Home.Home, pages...).Name = "home"

	e.GET("/accounts/register/", r.Auth.RegisterPage, pages...).Name = "register"
	e.POST("/accounts/register/", r.Auth.Register, pages...)
	e.GET(loginPath, r.Auth.LoginPage, pages...).Name = "login"
	e.POST(loginPath, r.Auth.Login, pages...)
	e.POST("/accounts/logout/", r.Auth.Logout, pages...).Name = "logout"
	e.GET("/accounts/profile/", r.Auth.Profile, withLogin...).Name = "profile"

	e.GET("/health", r.Health.LivenessCheck)
	e.GET("/health/ready", r.Health.ReadinessCheck)
	e.GET("/health/detailed", r.Health.DetailedHealthCheck)

	api := e.Group("/api/v1", middleware.VersionHeader(r.Version))
	api.POST("/auth/token", r.Token.IssueToken)
	api.GET("/carousel", r.Home.ActiveCarousel)

	limit := r.UploadLimit
	if limit == "" {
		limit = "6M"
	}
	admin := api.Group("/admin",
		middleware.StaffJWT(r.Tokens),
		middleware.RequireStaff(r.Users),
		echomw.BodyLimit(limit),
	)
	admin.GET("/carousel", r.Carousel.List)
	admin.POST("/carousel", r.Carousel.Create)
	admin.GET("/carousel/:id", r.Carousel.Get)
	admin.PUT("/carousel/:id", r.Carousel.Update)
	admin.DELETE("/carousel/:id", r.Carousel.Delete)
	admin.GET("/carousel/:id/image-url", r.Carousel.ImageURL)
}

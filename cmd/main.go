package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/otel"

	"plugshop/internal/caching"
	"plugshop/internal/config"
	_ "plugshop/internal/docs"
	"plugshop/internal/handlers"
	"plugshop/internal/jobs/background"
	"plugshop/internal/middleware"
	"plugshop/internal/repositories"
	"plugshop/internal/services"
	"plugshop/internal/telemetry"
	"plugshop/internal/web"
	"plugshop/pkg/database"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.Tracing.ServiceName).Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.GeneratedJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using a generated secret; admin tokens will not survive a restart")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheSvc.Close()

	storage, err := services.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Media.Bucket)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.Media.Bucket).Msg("media bucket unavailable, uploads will fail until it is reachable")
	}

	tracer := otel.Tracer(cfg.Tracing.ServiceName)
	if cfg.Tracing.CollectorHost != "" {
		tp, err := telemetry.InitTracing(ctx, cfg.Tracing.CollectorHost, cfg.Tracing.ServiceName)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize tracing")
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("failed to shutdown tracing")
				}
			}()
			tracer = tp.Tracer(cfg.Tracing.ServiceName)
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	carouselRepo := repositories.NewCarouselRepo(pool)

	// Services
	userSvc := services.NewUserService(userRepo, cfg.BcryptCost)
	sessionSvc := services.NewSessionService(cacheSvc, userRepo, cfg.SessionAge)
	tokenSvc := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	carouselSvc := services.NewCarouselService(carouselRepo, productRepo, storage, cacheSvc, services.CarouselConfig{
		MaxUploadSize: cfg.Media.MaxUploadSize,
		URLExpiry:     cfg.Media.URLExpiry,
	})

	scheduler, err := background.NewJobScheduler(carouselSvc, background.Config{
		SweepInterval: cfg.Media.SweepInterval,
		SweepGrace:    cfg.Media.SweepGrace,
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop scheduler")
		}
	}()

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(echoMiddleware.Recover())
	e.Use(middleware.Logger)
	e.Use(middleware.Tracing(tracer))
	e.Use(echoprometheus.NewMiddleware("plugshop"))

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/static", cfg.StaticDir)

	csrf := echoMiddleware.CSRFWithConfig(echoMiddleware.CSRFConfig{
		TokenLookup:    "form:csrfmiddlewaretoken",
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
	})

	router := &handlers.Router{
		Auth: handlers.NewAuthHandlers(userSvc, sessionSvc, cacheSvc, handlers.AuthConfig{
			LoginRedirectURL: cfg.LoginRedirectURL,
			SecureCookies:    cfg.SecureCookies,
			LoginRateLimit:   cfg.LoginRateLimit,
		}),
		Home:        handlers.NewHomeHandlers(carouselSvc),
		Carousel:    handlers.NewCarouselHandlers(carouselSvc),
		Token:       handlers.NewTokenHandlers(userSvc, tokenSvc, cacheSvc, cfg.LoginRateLimit),
		Health:      handlers.NewHealthHandlers(pool, cacheSvc, storage, version),
		Sessions:    sessionSvc,
		Tokens:      tokenSvc,
		Users:       userSvc,
		Version:     version,
		UploadLimit: fmt.Sprintf("%dK", cfg.Media.MaxUploadSize/1024+1024),
		TrustProxy:  cfg.TrustProxy,
	}
	router.Register(e, csrf)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", version).Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("plugshop server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`
	// GeneratedJWTSecret is set when JWT_SECRET was empty and a random one was generated.
	GeneratedJWTSecret bool

	SessionAge       time.Duration `env:"SESSION_AGE" envDefault:"336h"`
	SecureCookies    bool          `env:"SECURE_COOKIES" envDefault:"false"`
	LoginRedirectURL string        `env:"LOGIN_REDIRECT_URL" envDefault:"/accounts/profile/"`
	LoginRateLimit   int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"` // attempts per IP per minute, 0 disables
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
	TrustProxy       bool          `env:"TRUST_PROXY" envDefault:"false"` // take client IPs from X-Forwarded-For
	StaticDir        string        `env:"STATIC_DIR" envDefault:"static"`

	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Minio   MinioConfig   `envPrefix:"MINIO_"`
	Media   MediaConfig   `envPrefix:"MEDIA_"`
	Tracing TracingConfig `envPrefix:"OTEL_"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type MediaConfig struct {
	Bucket        string        `env:"BUCKET" envDefault:"media"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`
	URLExpiry     time.Duration `env:"URL_EXPIRY" envDefault:"1h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"6h"`
	SweepGrace    time.Duration `env:"SWEEP_GRACE" envDefault:"1h"`
}

type TracingConfig struct {
	CollectorHost string `env:"COLLECTOR_HOST"`
	ServiceName   string `env:"SERVICE_NAME" envDefault:"plugshop"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = random.String(32)
		cfg.GeneratedJWTSecret = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.LoginRedirectURL, "/") || strings.HasPrefix(c.LoginRedirectURL, "//") {
		return errors.New("LOGIN_REDIRECT_URL must be a local path")
	}
	if c.Media.MaxUploadSize <= 0 {
		return errors.New("MEDIA_MAX_UPLOAD_SIZE must be positive")
	}
	if !c.IsDevelopment() && c.GeneratedJWTSecret {
		return errors.New("JWT_SECRET is required outside development")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

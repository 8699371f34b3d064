// Command createsuperuser bootstraps a staff account that can sign in to the admin API.
//
//	createsuperuser -username admin -email admin@example.com
//
// The password is read from -password or PLUGSHOP_SUPERUSER_PASSWORD. DATABASE_URL
// and BCRYPT_COST supply defaults shared with the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"plugshop/internal/models"
	"plugshop/internal/repositories"
	"plugshop/internal/services"
	"plugshop/pkg/database"
)

// environment holds the server settings the command shares.
type environment struct {
	DatabaseURL string `env:"DATABASE_URL"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"10"`
	Password    string `env:"PLUGSHOP_SUPERUSER_PASSWORD"`
}

type options struct {
	databaseURL string
	username    string
	email       string
	password    string
	bcryptCost  int
	migrate     bool
}

var errUsage = errors.New("database-url, username, email and password are required")

func parseOptions(args []string) (*options, error) {
	var envCfg environment
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	opts := &options{}
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.StringVar(&opts.databaseURL, "database-url", envCfg.DatabaseURL, "postgres connection string")
	fs.StringVar(&opts.username, "username", "", "login name")
	fs.StringVar(&opts.email, "email", "", "email address")
	fs.StringVar(&opts.password, "password", envCfg.Password, "password")
	fs.IntVar(&opts.bcryptCost, "bcrypt-cost", envCfg.BcryptCost, "bcrypt work factor for the password hash")
	fs.BoolVar(&opts.migrate, "migrate", true, "apply the schema before creating the user")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.databaseURL == "" || opts.username == "" || opts.email == "" || opts.password == "" {
		fs.Usage()
		return nil, errUsage
	}
	if opts.bcryptCost < bcrypt.MinCost || opts.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside %d..%d", opts.bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, opts.databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if opts.migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
	}

	users := services.NewUserService(repositories.NewUserRepo(pool), opts.bcryptCost)
	user, err := users.CreateSuperuser(ctx, opts.username, opts.email, opts.password)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			fields := make([]string, 0, len(verr.Fields))
			for field := range verr.Fields {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, verr.Fields[field])
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("failed to create superuser")
	}

	fmt.Printf("Superuser %q created (%s).\n", user.Username, user.ID)
}

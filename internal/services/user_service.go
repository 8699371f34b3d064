package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"plugshop/internal/forms"
	"plugshop/internal/models"
	"plugshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	// Register validates the form and creates the account. Field problems are
	// returned as forms.Errors; the error return is reserved for failures.
	Register(ctx context.Context, form *forms.RegisterForm) (*models.User, forms.Errors, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateSuperuser(ctx context.Context, username, email, password string) (*models.User, error)
}

type userService struct {
	users      repositories.UserRepository
	bcryptCost int
	dummyHash  []byte
}

func NewUserService(users repositories.UserRepository, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// Compared against when the username is unknown so both paths cost one bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("plugshop-dummy-password"), bcryptCost)
	return &userService{users: users, bcryptCost: bcryptCost, dummyHash: dummy}
}

func (s *userService) Register(ctx context.Context, form *forms.RegisterForm) (*models.User, forms.Errors, error) {
	errs, err := form.Validate(ctx, s.users)
	if err != nil {
		return nil, nil, fmt.Errorf("validate registration: %w", err)
	}
	if !errs.Valid() {
		return nil, errs, nil
	}

	user, err := s.newUser(form.Username, form.Email, form.Password1)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, forms.UsernameTakenErrors(), nil
		}
		return nil, nil, err
	}

	log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return user, nil, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	// Inactive accounts get the same answer as a wrong password.
	if !user.IsActive {
		log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("login attempt for inactive user")
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) CreateSuperuser(ctx context.Context, username, email, password string) (*models.User, error) {
	form := &forms.RegisterForm{Username: username, Email: email, Password1: password, Password2: password}
	errs, err := form.Validate(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		return nil, formErrorsToValidation(errs)
	}

	user, err := s.newUser(form.Username, form.Email, password)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) newUser(username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil
}

func formErrorsToValidation(errs forms.Errors) error {
	verr := models.NewValidationError()
	for field, msg := range errs.Flatten() {
		verr.Add(field, msg)
	}
	return verr.OrNil()
}

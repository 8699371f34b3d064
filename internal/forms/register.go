package forms

import (
	"context"
	"strings"
)

const (
	msgUsernameTaken     = "A user with that username already exists."
	msgPasswordsMismatch = "The two password fields didn’t match."
)

// UsernameChecker reports whether a username is already registered.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// RegisterForm is the account sign-up form.
type RegisterForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

// Clean normalizes the submitted values before validation.
func (f *RegisterForm) Clean() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

// Validate checks the form. The returned error is only set when the username
// lookup itself failed.
func (f *RegisterForm) Validate(ctx context.Context, users UsernameChecker) (Errors, error) {
	f.Clean()
	errs := validateStruct(f)

	if !errs.Has("username") && users != nil {
		exists, err := users.UsernameExists(ctx, f.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			errs.Add("username", msgUsernameTaken)
		}
	}

	if f.Password1 != "" && f.Password2 != "" {
		if f.Password1 != f.Password2 {
			errs.Add("password2", msgPasswordsMismatch)
		} else {
			for _, problem := range ValidatePassword(f.Password2, f.Username) {
				errs.Add("password2", problem)
			}
		}
	}

	return errs, nil
}

// UsernameTakenErrors is the error set reported when the insert loses a uniqueness race.
func UsernameTakenErrors() Errors {
	errs := Errors{}
	errs.Add("username", msgUsernameTaken)
	return errs
}

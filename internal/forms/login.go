package forms

import "strings"

const MsgInvalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// LoginForm is the credentials form. Next carries the post-login redirect target.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"-" validate:"-"`
}

func (f *LoginForm) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	return validateStruct(f)
}

// InvalidLogin returns the form level error shown for bad credentials.
func InvalidLogin() Errors {
	errs := Errors{}
	errs.Add(NonFieldErrors, MsgInvalidLogin)
	return errs
}

// Package forms binds and validates the storefront's HTML and admin forms.
// Messages follow the wording users of the old site already know.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the Errors key for messages that belong to the whole form.
const NonFieldErrors = "__all__"

const (
	msgRequired        = "This field is required."
	msgInvalidEmail    = "Enter a valid email address."
	msgInvalidUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgInvalidUUID     = "Enter a valid UUID."
	msgInvalid         = "Enter a valid value."
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the form field name rather than the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// Errors maps a field name to its messages in the order they were added.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Merge copies other's messages into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
}

// Flatten joins each field's messages, for JSON error details.
func (e Errors) Flatten() map[string]string {
	out := make(map[string]string, len(e))
	for field, msgs := range e {
		out[field] = strings.Join(msgs, " ")
	}
	return out
}

// Fields lists fields with errors in a stable order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// validateStruct runs the struct tags of form and converts failures into Errors.
func validateStruct(form any) Errors {
	errs := Errors{}

	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonFieldErrors, msgInvalid)
		return errs
	}

	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "username":
		return msgInvalidUsername
	case "uuid":
		return msgInvalidUUID
	case "max":
		value, _ := fe.Value().(string)
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), utf8.RuneCountInString(value))
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return msgInvalid
	}
}

package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CarouselForm is the admin form for a carousel slide. The image travels as a
// separate multipart file.
type CarouselForm struct {
	Title     string `form:"title" validate:"required,max=200"`
	Caption   string `form:"caption" validate:"required,max=400"`
	Link      string `form:"link" validate:"required,max=200"`
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	SortOrder int    `form:"sort_order" validate:"min=0"`

	// Active is nil when the field was not submitted.
	Active *bool `form:"-" validate:"-"`
}

// ParseCarouselForm reads the form from submitted values. Values that cannot
// be parsed are reported instead of being silently zeroed.
func ParseCarouselForm(values url.Values) (*CarouselForm, Errors) {
	errs := Errors{}
	form := &CarouselForm{
		Title:     strings.TrimSpace(values.Get("title")),
		Caption:   strings.TrimSpace(values.Get("caption")),
		Link:      strings.TrimSpace(values.Get("link")),
		ProductID: strings.TrimSpace(values.Get("product_id")),
	}

	if raw := strings.TrimSpace(values.Get("sort_order")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add("sort_order", "Enter a whole number.")
		} else {
			form.SortOrder = n
		}
	}

	if values.Has("active") {
		active, ok := parseCheckbox(values.Get("active"))
		if !ok {
			errs.Add("active", msgInvalid)
		} else {
			form.Active = &active
		}
	}

	return form, errs
}

func (f *CarouselForm) Validate() Errors {
	return validateStruct(f)
}

// Product returns the parsed product id, or nil when none was chosen.
func (f *CarouselForm) Product() *uuid.UUID {
	if f.ProductID == "" {
		return nil
	}
	id, err := uuid.Parse(f.ProductID)
	if err != nil {
		return nil
	}
	return &id
}

func parseCheckbox(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true, true
	case "", "off", "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

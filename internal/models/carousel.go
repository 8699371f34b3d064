package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	CarouselTitleMaxLength   = 200
	CarouselCaptionMaxLength = 400
	CarouselLinkMaxLength    = 200

	// CarouselUploadPrefix namespaces carousel objects inside the media bucket.
	CarouselUploadPrefix = "carousel_images/"
)

// CarouselImage is one slide of the homepage carousel.
type CarouselImage struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Img       string     `json:"img" db:"img"` // object key under CarouselUploadPrefix
	Title     string     `json:"title" db:"title"`
	Caption   string     `json:"caption" db:"caption"`
	Link      string     `json:"link" db:"link"`
	Active    bool       `json:"active" db:"active"`
	ProductID *uuid.UUID `json:"product_id" db:"product_id"`
	SortOrder int        `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	// ImageURL is a presigned URL filled in for rendering; it is not stored.
	ImageURL string `json:"image_url,omitempty" db:"-"`
}

// NewCarouselImage returns a slide with the column defaults applied.
func NewCarouselImage(img, title, caption, link string) *CarouselImage {
	return &CarouselImage{
		Img:     img,
		Title:   title,
		Caption: caption,
		Link:    link,
		Active:  true,
	}
}

func (c *CarouselImage) String() string {
	return fmt.Sprintf("carousel Image : %s", c.Title)
}

// Validate checks the column constraints. Lengths are counted in characters.
func (c *CarouselImage) Validate() error {
	verr := NewValidationError()

	if strings.TrimSpace(c.Img) == "" {
		verr.Add("img", "This field is required.")
	}
	if strings.TrimSpace(c.Title) == "" {
		verr.Add("title", "This field is required.")
	}
	checkMaxLength(verr, "title", c.Title, CarouselTitleMaxLength)
	checkMaxLength(verr, "caption", c.Caption, CarouselCaptionMaxLength)
	checkMaxLength(verr, "link", c.Link, CarouselLinkMaxLength)
	if c.SortOrder < 0 {
		verr.Add("sort_order", "Ensure this value is greater than or equal to 0.")
	}

	return verr.OrNil()
}

func checkMaxLength(verr *ValidationError, field, value string, max int) {
	if n := utf8.RuneCountInString(value); n > max {
		verr.Add(field, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, n))
	}
}

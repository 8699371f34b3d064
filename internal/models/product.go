package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalogue entry a carousel slide may point at. The storefront
// only reads products; they are managed elsewhere.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Price       float64   `json:"price" db:"price"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

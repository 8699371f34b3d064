package repositories

import (
	"context"
	"errors"
	"fmt"

	"plugshop/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository gives read access to the catalogue.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT id, name, slug, price, description, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&product.ID, &product.Name, &product.Slug, &product.Price,
		&product.Description, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

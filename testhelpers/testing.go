package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"plugshop/internal/models"
	"plugshop/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties the
// tables. The test is skipped when no database is configured.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
	}
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	truncate := func() error {
		_, err := pool.Exec(ctx, `TRUNCATE carousel_images, products, users`)
		return err
	}
	if err := truncate(); err != nil {
		pool.Close()
		t.Fatalf("Failed to reset test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			defer pool.Close()
			return truncate()
		},
	}
}

// SetupTestProduct inserts a product a carousel slide can link to.
func SetupTestProduct(t *testing.T, db *TestDB, name string) *models.Product {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Slug:      uuid.NewString(),
		Price:     19.99,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO products (id, name, slug, price, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		product.ID, product.Name, product.Slug, product.Price, product.Description, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return product
}

// SetupTestCarouselImage inserts a slide directly, bypassing the repository.
func SetupTestCarouselImage(t *testing.T, db *TestDB, title string, sortOrder int, active bool) *models.CarouselImage {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	image := &models.CarouselImage{
		ID:        uuid.New(),
		Img:       models.CarouselUploadPrefix + uuid.NewString() + ".png",
		Title:     title,
		Caption:   title + " caption",
		Link:      "/",
		Active:    active,
		SortOrder: sortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO carousel_images (id, img, title, caption, link, active, product_id, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		image.ID, image.Img, image.Title, image.Caption, image.Link, image.Active,
		image.ProductID, image.SortOrder, image.CreatedAt, image.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test carousel image: %v", err)
	}

	return image
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plugshop/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CarouselRepository interface {
	Create(ctx context.Context, image *models.CarouselImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error)
	Update(ctx context.Context, image *models.CarouselImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.CarouselImage, error)
	ListActive(ctx context.Context) ([]*models.CarouselImage, error)
	ListImageKeys(ctx context.Context) ([]string, error)
}

type carouselRepo struct {
	db DBTX
}

func NewCarouselRepo(db DBTX) CarouselRepository {
	return &carouselRepo{db: db}
}

const carouselColumns = `id, img, title, caption, link, active, product_id, sort_order, created_at, updated_at`

// Create validates the slide and inserts it. Column limits are checked here so
// that every write path enforces them.
func (r *carouselRepo) Create(ctx context.Context, image *models.CarouselImage) error {
	if err := image.Validate(); err != nil {
		return err
	}
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	now := time.Now().UTC()
	image.CreatedAt = now
	image.UpdatedAt = now

	query := `
		INSERT INTO carousel_images (id, img, title, caption, link, active, product_id, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query, image.ID, image.Img, image.Title, image.Caption, image.Link, image.Active,
		image.ProductID, image.SortOrder, image.CreatedAt, image.UpdatedAt)
	return mapCarouselWriteError("insert carousel image", err)
}

func (r *carouselRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error) {
	query := `SELECT ` + carouselColumns + ` FROM carousel_images WHERE id = $1`
	image, err := scanCarouselImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get carousel image: %w", err)
	}
	return image, nil
}

func (r *carouselRepo) Update(ctx context.Context, image *models.CarouselImage) error {
	if err := image.Validate(); err != nil {
		return err
	}
	image.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE carousel_images
		SET img = $1, title = $2, caption = $3, link = $4, active = $5, product_id = $6, sort_order = $7, updated_at = $8
		WHERE id = $9
	`
	tag, err := r.db.Exec(ctx, query, image.Img, image.Title, image.Caption, image.Link, image.Active,
		image.ProductID, image.SortOrder, image.UpdatedAt, image.ID)
	if err != nil {
		return mapCarouselWriteError("update carousel image", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *carouselRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carousel_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete carousel image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *carouselRepo) List(ctx context.Context, limit, offset int) ([]*models.CarouselImage, error) {
	query := `
		SELECT ` + carouselColumns + `
		FROM carousel_images
		ORDER BY sort_order ASC, created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list carousel images: %w", err)
	}
	return collectCarouselImages(rows)
}

// ListActive returns the slides shown on the homepage, in display order.
func (r *carouselRepo) ListActive(ctx context.Context) ([]*models.CarouselImage, error) {
	query := `
		SELECT ` + carouselColumns + `
		FROM carousel_images
		WHERE active = TRUE
		ORDER BY sort_order ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active carousel images: %w", err)
	}
	return collectCarouselImages(rows)
}

// ListImageKeys returns every stored object key still referenced by a slide.
func (r *carouselRepo) ListImageKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT img FROM carousel_images`)
	if err != nil {
		return nil, fmt.Errorf("list carousel image keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func collectCarouselImages(rows pgx.Rows) ([]*models.CarouselImage, error) {
	defer rows.Close()

	images := []*models.CarouselImage{}
	for rows.Next() {
		image, err := scanCarouselImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func scanCarouselImage(row pgx.Row) (*models.CarouselImage, error) {
	image := &models.CarouselImage{}
	err := row.Scan(&image.ID, &image.Img, &image.Title, &image.Caption, &image.Link, &image.Active,
		&image.ProductID, &image.SortOrder, &image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func mapCarouselWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgErrorCode(err) == pgForeignKeyViolation {
		return models.ErrProductNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

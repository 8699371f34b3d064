package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"plugshop/internal/caching"
	"plugshop/internal/models"
	"plugshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxUploadSize int64 = 5 << 20
	DefaultURLExpiry           = time.Hour

	activeCarouselTTL = 5 * time.Minute
	productCacheTTL   = 10 * time.Minute
	sniffLength       = 512
)

const (
	msgNoFile       = "No file was submitted."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgFileTooLarge = "Ensure this file is at most %d bytes (it is %d bytes)."
	msgEmptyFile    = "The submitted file is empty."
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageUpload is an uploaded file waiting to be stored.
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// CarouselInput holds the editable fields of a slide. A nil Active keeps the
// current value, or the default on create.
type CarouselInput struct {
	Title     string
	Caption   string
	Link      string
	Active    *bool
	ProductID *uuid.UUID
	SortOrder int
}

type CarouselConfig struct {
	MaxUploadSize int64
	URLExpiry     time.Duration
}

type CarouselService interface {
	Create(ctx context.Context, in CarouselInput, upload *ImageUpload) (*models.CarouselImage, error)
	Update(ctx context.Context, id uuid.UUID, in CarouselInput, upload *ImageUpload) (*models.CarouselImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error)
	List(ctx context.Context, limit, offset int) ([]*models.CarouselImage, error)
	// ListActive returns the homepage slides with ImageURL filled in.
	ListActive(ctx context.Context) ([]*models.CarouselImage, error)
	ImageURL(ctx context.Context, id uuid.UUID, expiry time.Duration) (string, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// SweepOrphanedImages removes stored carousel objects no slide references
	// that are older than grace. It returns how many were removed.
	SweepOrphanedImages(ctx context.Context, grace time.Duration) (int, error)
}

type carouselService struct {
	repo     repositories.CarouselRepository
	products repositories.ProductRepository
	storage  MediaStorage
	cache    caching.CacheService
	cfg      CarouselConfig
}

func NewCarouselService(
	repo repositories.CarouselRepository,
	products repositories.ProductRepository,
	storage MediaStorage,
	cache caching.CacheService,
	cfg CarouselConfig,
) CarouselService {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}
	return &carouselService{repo: repo, products: products, storage: storage, cache: cache, cfg: cfg}
}

type preparedImage struct {
	key         string
	contentType string
	size        int64
	body        io.Reader
}

// prepareImage sniffs the upload and picks its object key. Problems are reported against the img field.
func (s *carouselService) prepareImage(upload *ImageUpload) (*preparedImage, error) {
	verr := models.NewValidationError()
	if upload == nil || upload.Reader == nil {
		verr.Add("img", msgNoFile)
		return nil, verr
	}
	if upload.Size == 0 {
		verr.Add("img", msgEmptyFile)
		return nil, verr
	}
	if upload.Size > s.cfg.MaxUploadSize {
		verr.Add("img", fmt.Sprintf(msgFileTooLarge, s.cfg.MaxUploadSize, upload.Size))
		return nil, verr
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		verr.Add("img", msgInvalidImage)
		return nil, verr
	}

	return &preparedImage{
		key:         models.CarouselUploadPrefix + uuid.NewString() + ext,
		contentType: contentType,
		size:        upload.Size,
		body:        io.MultiReader(bytes.NewReader(head), upload.Reader),
	}, nil
}

func (s *carouselService) checkProduct(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.GetProduct(ctx, *id)
	return err
}

func (s *carouselService) Create(ctx context.Context, in CarouselInput, upload *ImageUpload) (*models.CarouselImage, error) {
	image, err := s.prepareImage(upload)
	if err != nil {
		return nil, err
	}

	slide := models.NewCarouselImage(image.key, in.Title, in.Caption, in.Link)
	if in.Active != nil {
		slide.Active = *in.Active
	}
	slide.ProductID = in.ProductID
	slide.SortOrder = in.SortOrder

	if err := slide.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, slide.ProductID); err != nil {
		return nil, err
	}

	if err := s.storage.Upload(ctx, image.key, image.body, image.size, image.contentType); err != nil {
		return nil, fmt.Errorf("upload carousel image: %w", err)
	}

	if err := s.repo.Create(ctx, slide); err != nil {
		s.removeObject(ctx, image.key)
		return nil, err
	}

	s.invalidate(ctx)
	log.Ctx(ctx).Info().Str("carousel_id", slide.ID.String()).Str("img", slide.Img).Msg("carousel image created")
	return slide, nil
}

func (s *carouselService) Update(ctx context.Context, id uuid.UUID, in CarouselInput, upload *ImageUpload) (*models.CarouselImage, error) {
	slide, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	slide.Title = in.Title
	slide.Caption = in.Caption
	slide.Link = in.Link
	slide.ProductID = in.ProductID
	slide.SortOrder = in.SortOrder
	if in.Active != nil {
		slide.Active = *in.Active
	}

	var image *preparedImage
	if upload != nil {
		if image, err = s.prepareImage(upload); err != nil {
			return nil, err
		}
	}
	oldKey := slide.Img
	if image != nil {
		slide.Img = image.key
	}

	if err := slide.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, slide.ProductID); err != nil {
		return nil, err
	}

	if image != nil {
		if err := s.storage.Upload(ctx, image.key, image.body, image.size, image.contentType); err != nil {
			return nil, fmt.Errorf("upload carousel image: %w", err)
		}
	}

	if err := s.repo.Update(ctx, slide); err != nil {
		if image != nil {
			s.removeObject(ctx, image.key)
		}
		return nil, err
	}

	if image != nil && oldKey != "" {
		s.removeObject(ctx, oldKey)
	}
	s.invalidate(ctx)
	return slide, nil
}

func (s *carouselService) Delete(ctx context.Context, id uuid.UUID) error {
	slide, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeObject(ctx, slide.Img)
	s.invalidate(ctx)
	return nil
}

func (s *carouselService) Get(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *carouselService) List(ctx context.Context, limit, offset int) ([]*models.CarouselImage, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *carouselService) ListActive(ctx context.Context) ([]*models.CarouselImage, error) {
	logger := log.Ctx(ctx)

	images, found, err := s.cache.GetActiveCarousel(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("carousel cache read failed")
	}
	if !found {
		images, err = s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetActiveCarousel(ctx, images, activeCarouselTTL); err != nil {
			logger.Warn().Err(err).Msg("carousel cache write failed")
		}
	}

	for _, image := range images {
		url, err := s.storage.PresignedURL(ctx, image.Img, s.cfg.URLExpiry)
		if err != nil {
			logger.Warn().Err(err).Str("img", image.Img).Msg("failed to presign carousel image")
			continue
		}
		image.ImageURL = url
	}
	return images, nil
}

func (s *carouselService) ImageURL(ctx context.Context, id uuid.UUID, expiry time.Duration) (string, error) {
	slide, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = s.cfg.URLExpiry
	}
	return s.storage.PresignedURL(ctx, slide.Img, expiry)
}

func (s *carouselService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.cache.GetProduct(ctx, id)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("product cache read failed")
	}
	if product != nil {
		return product, nil
	}

	product, err = s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProduct(ctx, product, productCacheTTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("product cache write failed")
	}
	return product, nil
}

func (s *carouselService) SweepOrphanedImages(ctx context.Context, grace time.Duration) (int, error) {
	keys, err := s.repo.ListImageKeys(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		referenced[key] = struct{}{}
	}

	objects, err := s.storage.List(ctx, models.CarouselUploadPrefix)
	if err != nil {
		return 0, fmt.Errorf("list stored carousel images: %w", err)
	}

	cutoff := time.Now().Add(-grace)
	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		// Recent objects may belong to a slide whose row is still being written.
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.storage.Delete(ctx, obj.Key); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", obj.Key).Msg("failed to remove orphaned image")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *carouselService) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove stored image")
	}
}

func (s *carouselService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCarousel(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("carousel cache invalidation failed")
	}
}

package mocks

import (
	"context"
	"io"
	"time"

	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type CacheService struct {
	mock.Mock
}

func (m *CacheService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *CacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	args := m.Called(ctx, product, ttl)
	return args.Error(0)
}

func (m *CacheService) GetActiveCarousel(ctx context.Context) ([]*models.CarouselImage, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*models.CarouselImage), args.Bool(1), args.Error(2)
}

func (m *CacheService) SetActiveCarousel(ctx context.Context, images []*models.CarouselImage, ttl time.Duration) error {
	args := m.Called(ctx, images, ttl)
	return args.Error(0)
}

func (m *CacheService) InvalidateCarousel(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CacheService) SetSession(ctx context.Context, sessionKey string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, sessionKey, userID, ttl)
	return args.Error(0)
}

func (m *CacheService) GetSession(ctx context.Context, sessionKey string) (uuid.UUID, error) {
	args := m.Called(ctx, sessionKey)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *CacheService) DeleteSession(ctx context.Context, sessionKey string) error {
	args := m.Called(ctx, sessionKey)
	return args.Error(0)
}

func (m *CacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *CacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CacheService) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MediaStorage struct {
	mock.Mock
}

func (m *MediaStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *MediaStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *MediaStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MediaStorage) List(ctx context.Context, prefix string) ([]services.StoredObject, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.StoredObject), args.Error(1)
}

func (m *MediaStorage) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MediaStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

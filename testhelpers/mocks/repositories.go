// Package mocks holds testify mocks for the repository, cache and storage interfaces.
package mocks

import (
	"context"
	"time"

	"plugshop/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type CarouselRepository struct {
	mock.Mock
}

func (m *CarouselRepository) Create(ctx context.Context, image *models.CarouselImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *CarouselRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CarouselImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CarouselImage), args.Error(1)
}

func (m *CarouselRepository) Update(ctx context.Context, image *models.CarouselImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *CarouselRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CarouselRepository) List(ctx context.Context, limit, offset int) ([]*models.CarouselImage, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CarouselImage), args.Error(1)
}

func (m *CarouselRepository) ListActive(ctx context.Context) ([]*models.CarouselImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CarouselImage), args.Error(1)
}

func (m *CarouselRepository) ListImageKeys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

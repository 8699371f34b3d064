package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"plugshop/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "plugshop:"

type CacheService interface {
	// Product caching
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error

	// Homepage carousel
	GetActiveCarousel(ctx context.Context) ([]*models.CarouselImage, bool, error)
	SetActiveCarousel(ctx context.Context, images []*models.CarouselImage, ttl time.Duration) error
	InvalidateCarousel(ctx context.Context) error

	// Session management
	SetSession(ctx context.Context, sessionKey string, userID uuid.UUID, ttl time.Duration) error
	GetSession(ctx context.Context, sessionKey string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, sessionKey string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ CacheService = (*redisCacheService)(nil)

type redisCacheService struct {
	client *redis.Client
}

// NormalizeAddr strips a redis:// or rediss:// scheme so the value can be used as redis.Options.Addr.
func NormalizeAddr(addr string) string {
	for _, scheme := range []string{"redis://", "rediss://"} {
		if strings.HasPrefix(addr, scheme) {
			return strings.TrimPrefix(addr, scheme)
		}
	}
	return addr
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := NormalizeAddr(addr)

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	// An unreachable redis is not fatal; callers fall back to the database.
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	} else {
		log.Debug().Str("addr", parsedAddr).Msg("redis connection established")
	}

	return &redisCacheService{client: client}
}

func productKey(id uuid.UUID) string {
	return fmt.Sprintf("%sproduct:%s", keyPrefix, id.String())
}

func sessionKey(key string) string {
	return fmt.Sprintf("%ssession:%s", keyPrefix, key)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", keyPrefix, key)
}

const activeCarouselKey = keyPrefix + "carousel:active"

func (r *redisCacheService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, productKey(product.ID), data, ttl).Err()
}

// GetActiveCarousel reports found=false on a miss so that an empty cached list is still a hit.
func (r *redisCacheService) GetActiveCarousel(ctx context.Context) ([]*models.CarouselImage, bool, error) {
	data, err := r.client.Get(ctx, activeCarouselKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	images := []*models.CarouselImage{}
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, false, err
	}
	return images, true, nil
}

func (r *redisCacheService) SetActiveCarousel(ctx context.Context, images []*models.CarouselImage, ttl time.Duration) error {
	if images == nil {
		images = []*models.CarouselImage{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, activeCarouselKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateCarousel(ctx context.Context) error {
	return r.client.Del(ctx, activeCarouselKey).Err()
}

func (r *redisCacheService) SetSession(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKey(key), userID.String(), ttl).Err()
}

// GetSession returns uuid.Nil when the session does not exist or has expired.
func (r *redisCacheService) GetSession(ctx context.Context, key string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, sessionKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session value: %w", err)
	}
	return id, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, key string) error {
	return r.client.Del(ctx, sessionKey(key)).Err()
}

// IsRateLimited counts hits in a fixed window. The counter is created with its
// expiry in the same transaction so it can never outlive the window.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)

	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, cacheKey, 0, window)
		count = pipe.Incr(ctx, cacheKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return count.Val() > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}

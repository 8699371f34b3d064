package testhelpers

import (
	"context"
	"strings"
	"testing"

	"plugshop/internal/models"
	"plugshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryIntegration(t *testing.T) {
	testDB := SetupTestDB(t, "")
	defer testDB.Cleanup()

	ctx := context.Background()
	repo := repositories.NewUserRepo(testDB.Pool)

	user := &models.User{Username: "Alice", Email: "alice@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	t.Run("lookup ignores case", func(t *testing.T) {
		found, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		exists, err := repo.UsernameExists(ctx, "ALICE")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate username differing in case", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", IsActive: true})
		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestCarouselRepositoryIntegration(t *testing.T) {
	testDB := SetupTestDB(t, "")
	defer testDB.Cleanup()

	ctx := context.Background()
	repo := repositories.NewCarouselRepo(testDB.Pool)

	second := SetupTestCarouselImage(t, testDB, "Second", 2, true)
	first := SetupTestCarouselImage(t, testDB, "First", 1, true)
	SetupTestCarouselImage(t, testDB, "Hidden", 0, false)

	t.Run("active slides in display order", func(t *testing.T) {
		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, first.ID, active[0].ID)
		assert.Equal(t, second.ID, active[1].ID)
	})

	t.Run("product link is cleared when the product goes away", func(t *testing.T) {
		product := SetupTestProduct(t, testDB, "Charger")
		first.ProductID = &product.ID
		require.NoError(t, repo.Update(ctx, first))

		_, err := testDB.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
		require.NoError(t, err)

		reloaded, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.ProductID)
	})

	t.Run("unknown product is rejected", func(t *testing.T) {
		missing := uuid.New()
		slide := models.NewCarouselImage(models.CarouselUploadPrefix+"x.png", "Broken", "caption", "/")
		slide.ProductID = &missing
		assert.ErrorIs(t, repo.Create(ctx, slide), models.ErrProductNotFound)
	})

	t.Run("caption limit counts characters", func(t *testing.T) {
		slide := models.NewCarouselImage(models.CarouselUploadPrefix+"y.png", "Unicode", strings.Repeat("é", models.CarouselCaptionMaxLength), "/")
		require.NoError(t, repo.Create(ctx, slide))
	})

	t.Run("image keys", func(t *testing.T) {
		keys, err := repo.ListImageKeys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, second.Img)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), models.ErrNotFound)
	})
}

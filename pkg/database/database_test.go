package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"users", "products", "carousel_images"} {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, Schema, "ON DELETE SET NULL")
	assert.Contains(t, Schema, "lower(username)")
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE")).WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock)
	assert.ErrorContains(t, err, "apply schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPoolRejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse database url")
}

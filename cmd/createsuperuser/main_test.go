package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseOptionsUsesServerEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plugshop")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("PLUGSHOP_SUPERUSER_PASSWORD", "s3cure-admin-pass")

	opts, err := parseOptions([]string{"-username", "admin", "-email", "admin@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/plugshop", opts.databaseURL)
	assert.Equal(t, 12, opts.bcryptCost)
	assert.Equal(t, "s3cure-admin-pass", opts.password)
	assert.True(t, opts.migrate)
}

func TestParseOptionsFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plugshop")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("PLUGSHOP_SUPERUSER_PASSWORD", "s3cure-admin-pass")

	opts, err := parseOptions([]string{
		"-username", "admin", "-email", "admin@example.com",
		"-bcrypt-cost", "4", "-password", "other-admin-pass", "-migrate=false",
	})
	require.NoError(t, err)

	assert.Equal(t, bcrypt.MinCost, opts.bcryptCost)
	assert.Equal(t, "other-admin-pass", opts.password)
	assert.False(t, opts.migrate)
}

func TestParseOptionsDefaultCost(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plugshop")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("PLUGSHOP_SUPERUSER_PASSWORD", "s3cure-admin-pass")

	opts, err := parseOptions([]string{"-username", "admin", "-email", "admin@example.com"})
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, opts.bcryptCost)
}

func TestParseOptionsErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plugshop")
	t.Setenv("PLUGSHOP_SUPERUSER_PASSWORD", "s3cure-admin-pass")

	t.Run("missing username", func(t *testing.T) {
		_, err := parseOptions([]string{"-email", "admin@example.com"})
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("cost out of range", func(t *testing.T) {
		_, err := parseOptions([]string{"-username", "admin", "-email", "admin@example.com", "-bcrypt-cost", "99"})
		assert.ErrorContains(t, err, "bcrypt cost 99")
	})

	t.Run("bad environment", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "lots")
		_, err := parseOptions([]string{"-username", "admin", "-email", "admin@example.com"})
		assert.ErrorContains(t, err, "parse environment")
	})
}

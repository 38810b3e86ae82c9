package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarFactory_AuthFailures(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("no google credentials", func(t *testing.T) {
		config := defaultConfig()
		config.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")

		_, err := NewCalendarFactory(ctx, config, db).CreateCalendarProvider()
		assert.ErrorIs(t, err, ErrAuthFailure)
	})

	t.Run("oauth client without stored token", func(t *testing.T) {
		config := defaultConfig()
		config.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")
		config.ClientID = "id"
		config.ClientSecret = "secret"

		_, err := NewCalendarFactory(ctx, config, db).CreateCalendarProvider()
		assert.ErrorIs(t, err, ErrAuthFailure)
	})

	t.Run("broken credentials file", func(t *testing.T) {
		config := defaultConfig()
		config.CredentialsFile = writeFile(t, "credentials.json", `{"type":`)

		_, err := NewCalendarFactory(ctx, config, db).CreateCalendarProvider()
		assert.ErrorIs(t, err, ErrAuthFailure)
	})

	t.Run("caldav without server", func(t *testing.T) {
		config := defaultConfig()
		config.Calendar.Provider = "caldav"

		_, err := NewCalendarFactory(ctx, config, db).CreateCalendarProvider()
		assert.ErrorIs(t, err, ErrAuthFailure)
	})
}

func TestCalendarFactory_UnknownProvider(t *testing.T) {
	config := defaultConfig()
	config.Calendar.Provider = "outlook"

	_, err := NewCalendarFactory(context.Background(), config, newTestDB(t)).CreateCalendarProvider()

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthFailure)
}

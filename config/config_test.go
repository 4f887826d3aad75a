package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, "configs/curriculum.yaml", cfg.Curriculum.Path)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Features.IsEnabled(FeatureAutoCertificate, "u1"))
	assert.True(t, cfg.Jobs.StreakWatchEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.StreakWatchInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Asia/Almaty")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "lingvo")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DATABASE_URL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Almaty", cfg.App.Location.String())
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "postgres://lingvo:secret@db:5432/lingvo?sslmode=disable", cfg.Database.URL)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("production without database", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("APP_TIMEZONE", "Mars/Olympus")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("zero streak watch interval", func(t *testing.T) {
		t.Setenv("JOBS_STREAK_WATCH_INTERVAL", "0s")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "JOBS_STREAK_WATCH_INTERVAL")
	})

	t.Run("plain admin key", func(t *testing.T) {
		t.Setenv("HTTP_ADMIN_KEY_HASH", "letmein")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "bcrypt")
	})
}

func TestFeatureFlags(t *testing.T) {
	ff := NewFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureAutoUnlockNextLevel, "u1"))
	assert.False(t, ff.IsEnabled("nope", "u1"))

	require.NoError(t, ff.SetRolloutPercent(FeatureAutoUnlockNextLevel, 50))
	first := ff.IsEnabled(FeatureAutoUnlockNextLevel, "u1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureAutoUnlockNextLevel, "u1"), "bucketing is stable")
	}
	assert.False(t, ff.IsEnabled(FeatureAutoUnlockNextLevel, ""), "partial rollout needs a learner")

	ff.SetOverride("u2", FeatureAutoCertificate, false)
	assert.False(t, ff.IsEnabled(FeatureAutoCertificate, "u2"))
	assert.True(t, ff.IsEnabled(FeatureAutoCertificate, "u3"))

	assert.ErrorIs(t, ff.SetRolloutPercent("nope", 10), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureAutoCertificate, 101), ErrInvalidRolloutPercent)
}

func TestFeatureFlags_FromEnvironment(t *testing.T) {
	t.Setenv("FEATURE_PROGRESS_AUTO_UNLOCK_NEXT_LEVEL", "true")
	t.Setenv("FEATURE_ADMIN_PROGRESS_VIEW", "false")

	ff := LoadFeatureFlags()
	assert.True(t, ff.IsEnabled(FeatureAutoUnlockNextLevel, ""))
	assert.False(t, ff.IsEnabled(FeatureAdminProgressView, ""))
}

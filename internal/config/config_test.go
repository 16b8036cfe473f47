package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubreg/portal/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "stub", cfg.PaymentProvider)
	assert.Equal(t, 2*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"JWT_SECRET=from-file\nSESSION_TTL=5m\nCORS_ORIGINS=https://a.example,https://b.example\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Cleanup(func() {
		os.Unsetenv("SESSION_TTL")
		os.Unsetenv("CORS_ORIGINS")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"stub ok", func(c *Config) {}, false},
		{"stripe without key", func(c *Config) { c.PaymentProvider = "stripe" }, true},
		{"stripe ok", func(c *Config) { c.PaymentProvider = "Stripe"; c.StripeSecretKey = "sk_test" }, false},
		{"unknown provider", func(c *Config) { c.PaymentProvider = "paypal" }, true},
		{"telegram without chat", func(c *Config) { c.TelegramToken = "t" }, true},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{PaymentProvider: "stub", PaymentWebhookSecret: "x", SessionTTL: time.Minute}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"clubs": [{"slug": "stingrays", "name": "Stingrays", "club_dues_cents": 25000,
			"fees": {"flag": 1600, "contact": 3000}, "current_season": "2025-2026"}],
		"admins": [{"club_slug": "stingrays", "user_id": "u1", "role": "volunteer",
			"permissions": ["view_registrations"]}]
	}`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Clubs, 1)
	assert.Equal(t, int64(3000), seed.Clubs[0].Fees.Contact)

	admin := seed.Admins[0].Admin("club-1")
	assert.True(t, admin.Can(models.PermViewRegistrations))
	assert.False(t, admin.Can(models.PermExportData))

	require.NoError(t, os.WriteFile(path, []byte(`{"clubs": [{"slug": "x"}]}`), 0o600))
	_, err = LoadSeed(path)
	assert.Error(t, err)
}

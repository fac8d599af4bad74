package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bloomi")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(20*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "openai", cfg.Vision.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Vision.Model)
	assert.Equal(t, 2000, cfg.Vision.MaxTokens)
	assert.Equal(t, 0.7, cfg.Vision.Temperature)
	assert.Equal(t, 30*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, QuotaStorePostgres, cfg.Quota.Store)
	assert.Equal(t, "0 0 0 * * *", cfg.Quota.ResetCron)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	loc, err := cfg.Quota.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bloomi")
	t.Setenv("VISION_TIMEOUT", "45000")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("QUOTA_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("QUOTA_TIMEZONE", "UTC")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bloomi.app, https://admin.bloomi.app")
	t.Setenv("S3_PUBLIC_READ", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, 0.2, cfg.Vision.Temperature)
	assert.Equal(t, QuotaStoreRedis, cfg.Quota.Store)
	assert.Equal(t, []string{"https://bloomi.app", "https://admin.bloomi.app"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Storage.PublicRead)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bloomi")
	t.Setenv("OPENAI_MAX_TOKENS", "lots")
	t.Setenv("VISION_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Vision.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Vision.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{DSN: "postgres://x"},
			Vision:   VisionConfig{Timeout: time.Second},
			Quota:    QuotaConfig{Store: QuotaStorePostgres, Timezone: "UTC"},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Database.DSN = ""
	assert.ErrorContains(t, c.Validate(), "DB_DSN")

	c = valid()
	c.Quota.Store = "memcached"
	assert.ErrorContains(t, c.Validate(), "QUOTA_STORE")

	c = valid()
	c.Quota.Store = QuotaStoreRedis
	assert.ErrorContains(t, c.Validate(), "REDIS_ADDR")

	c = valid()
	c.Quota.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, c.Validate(), "QUOTA_TIMEZONE")
}

func TestFirebaseConfig_Enabled(t *testing.T) {
	assert.False(t, FirebaseConfig{}.Enabled())
	assert.False(t, FirebaseConfig{ProjectID: "bloomi"}.Enabled())
	assert.True(t, FirebaseConfig{CredentialsPath: "/etc/firebase.json"}.Enabled())
	assert.True(t, FirebaseConfig{CredentialsJSON: "{}"}.Enabled())
}

func TestLoad_ZeroTemperature(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bloomi")
	t.Setenv("OPENAI_TEMPERATURE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Vision.Temperature)
}

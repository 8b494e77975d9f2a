package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, int64(10), cfg.Server.MaxUploadMB)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "x-auth-token", cfg.Auth.Header)
	assert.Equal(t, 1440, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-3.5-turbo-0125", cfg.LLM.PlannerModel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROADMAP_DATABASE_DRIVER", "SQLite")
	t.Setenv("ROADMAP_AUTH_JWTSECRET", "s3cret")
	t.Setenv("ROADMAP_LLM_PROVIDER", "gemini")
	t.Setenv("ROADMAP_LLM_APIKEY", "key")
	t.Setenv("ROADMAP_SERVER_ALLOWORIGINS", "http://localhost:5173,http://example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.PlannerModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.ChatModel)
	assert.Equal(t, []string{"http://localhost:5173", "http://example.com"}, cfg.Server.AllowOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
	assert.Contains(t, err.Error(), "llm api key")

	cfg.Auth.JWTSecret = "x"
	cfg.LLM.APIKey = "y"
	cfg.Database.Driver = "postgres"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

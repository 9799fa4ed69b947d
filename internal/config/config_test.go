package config

import (
	"testing"
	"time"

	"github.com/pleaguefc/registration-api/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, EnvDev, cfg.AppEnv)
	require.Equal(t, "registration-api", cfg.ServiceName)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, int64(2899), cfg.RegistrationFee)
	require.Equal(t, "INR", cfg.RegistrationCurrency)
	require.Equal(t, "PLF", cfg.TeamCodePrefix)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 10*time.Second, cfg.ReadTimeout)
	require.Equal(t, logging.LevelInfo, cfg.LogLevel)
	require.True(t, cfg.CashfreeCircuitEnabled)
	require.False(t, cfg.NotifierEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "stage")
	t.Setenv("REGISTRATION_FEE", "1500")
	t.Setenv("TEAM_CODE_PREFIX", "abc")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, EnvStage, cfg.AppEnv)
	require.Equal(t, int64(1500), cfg.RegistrationFee)
	require.Equal(t, "ABC", cfg.TeamCodePrefix)
	require.Equal(t, logging.LevelDebug, cfg.LogLevel)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad app env", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("zero fee", func(t *testing.T) {
		t.Setenv("REGISTRATION_FEE", "0")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("notifier enabled without url", func(t *testing.T) {
		t.Setenv("NOTIFIER_ENABLED", "true")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("prod requires cashfree credentials", func(t *testing.T) {
		t.Setenv("APP_ENV", "prod")
		_, err := Load()
		require.Error(t, err)
	})
}

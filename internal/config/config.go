package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pleaguefc/registration-api/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	DBURL                        string
	DBDisablePreparedBinary      bool
	CORSAllowedOrigins           []string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	AdminToken                   string
	RegistrationFee              int64
	RegistrationCurrency         string
	TeamCodePrefix               string
	CashfreeBaseURL              string
	CashfreeAppID                string
	CashfreeSecret               string
	CashfreeWebhookSecret        string
	CashfreeTimeout              time.Duration
	CashfreeMaxRetries           int
	CashfreeCircuitEnabled       bool
	CashfreeCircuitFailureCount  int
	CashfreeCircuitOpenTimeout   time.Duration
	NotifierEnabled              bool
	NotifierWebhookURL           string
	NotifierToken                string
	NotifierTimeout              time.Duration
	NotifierPoolSize             int
	UptraceEnabled               bool
	UptraceDSN                   string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	LogLevel                     logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	registrationFee, err := getEnvAsInt("REGISTRATION_FEE", 2899)
	if err != nil {
		return Config{}, fmt.Errorf("parse REGISTRATION_FEE: %w", err)
	}
	if registrationFee <= 0 {
		return Config{}, fmt.Errorf("REGISTRATION_FEE must be > 0")
	}

	cashfreeTimeout, err := time.ParseDuration(getEnv("CASHFREE_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CASHFREE_TIMEOUT: %w", err)
	}
	if cashfreeTimeout <= 0 {
		return Config{}, fmt.Errorf("CASHFREE_TIMEOUT must be > 0")
	}
	cashfreeMaxRetries, err := getEnvAsInt("CASHFREE_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse CASHFREE_MAX_RETRIES: %w", err)
	}
	if cashfreeMaxRetries < 0 {
		return Config{}, fmt.Errorf("CASHFREE_MAX_RETRIES must be >= 0")
	}
	cashfreeCircuitEnabled, err := strconv.ParseBool(getEnv("CASHFREE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CASHFREE_CIRCUIT_ENABLED: %w", err)
	}
	cashfreeCircuitFailureCount, err := getEnvAsInt("CASHFREE_CIRCUIT_FAILURE_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse CASHFREE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cashfreeCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CASHFREE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cashfreeCircuitOpenTimeout, err := time.ParseDuration(getEnv("CASHFREE_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CASHFREE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if cashfreeCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CASHFREE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	cashfreeAppID := strings.TrimSpace(getEnv("CASHFREE_APP_ID", ""))
	cashfreeSecret := strings.TrimSpace(getEnv("CASHFREE_SECRET", ""))
	if appEnv == EnvProd {
		if cashfreeAppID == "" {
			return Config{}, fmt.Errorf("CASHFREE_APP_ID is required when APP_ENV=prod")
		}
		if cashfreeSecret == "" {
			return Config{}, fmt.Errorf("CASHFREE_SECRET is required when APP_ENV=prod")
		}
	}

	notifierEnabled, err := strconv.ParseBool(getEnv("NOTIFIER_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFIER_ENABLED: %w", err)
	}
	notifierWebhookURL := strings.TrimSpace(getEnv("NOTIFIER_WEBHOOK_URL", ""))
	if notifierEnabled && notifierWebhookURL == "" {
		return Config{}, fmt.Errorf("NOTIFIER_WEBHOOK_URL is required when NOTIFIER_ENABLED=true")
	}
	notifierTimeout, err := time.ParseDuration(getEnv("NOTIFIER_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFIER_TIMEOUT: %w", err)
	}
	if notifierTimeout <= 0 {
		return Config{}, fmt.Errorf("NOTIFIER_TIMEOUT must be > 0")
	}
	notifierPoolSize, err := getEnvAsInt("NOTIFIER_POOL_SIZE", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFIER_POOL_SIZE: %w", err)
	}
	if notifierPoolSize < 1 {
		return Config{}, fmt.Errorf("NOTIFIER_POOL_SIZE must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "registration-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                       strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:     dbDisablePreparedBinary,
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                 readTimeout,
		WriteTimeout:                writeTimeout,
		AdminToken:                  strings.TrimSpace(getEnv("ADMIN_TOKEN", "")),
		RegistrationFee:             int64(registrationFee),
		RegistrationCurrency:        strings.ToUpper(strings.TrimSpace(getEnv("REGISTRATION_CURRENCY", "INR"))),
		TeamCodePrefix:              strings.ToUpper(strings.TrimSpace(getEnv("TEAM_CODE_PREFIX", "PLF"))),
		CashfreeBaseURL:             strings.TrimSpace(getEnv("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg")),
		CashfreeAppID:               cashfreeAppID,
		CashfreeSecret:              cashfreeSecret,
		CashfreeWebhookSecret:       strings.TrimSpace(getEnv("CASHFREE_WEBHOOK_SECRET", "")),
		CashfreeTimeout:             cashfreeTimeout,
		CashfreeMaxRetries:          cashfreeMaxRetries,
		CashfreeCircuitEnabled:      cashfreeCircuitEnabled,
		CashfreeCircuitFailureCount: cashfreeCircuitFailureCount,
		CashfreeCircuitOpenTimeout:  cashfreeCircuitOpenTimeout,
		NotifierEnabled:             notifierEnabled,
		NotifierWebhookURL:          notifierWebhookURL,
		NotifierToken:               strings.TrimSpace(getEnv("NOTIFIER_TOKEN", "")),
		NotifierTimeout:             notifierTimeout,
		NotifierPoolSize:            notifierPoolSize,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
		LogLevel:                    parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.TeamCodePrefix == "" {
		return Config{}, fmt.Errorf("TEAM_CODE_PREFIX cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

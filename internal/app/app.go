package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pleaguefc/registration-api/external/cashfree"
	"github.com/pleaguefc/registration-api/internal/config"
	"github.com/pleaguefc/registration-api/internal/domain/team"
	"github.com/pleaguefc/registration-api/internal/infrastructure/notify"
	"github.com/pleaguefc/registration-api/internal/infrastructure/repository/memory"
	"github.com/pleaguefc/registration-api/internal/infrastructure/repository/postgres"
	"github.com/pleaguefc/registration-api/internal/interfaces/httpapi"
	"github.com/pleaguefc/registration-api/internal/platform/code"
	"github.com/pleaguefc/registration-api/internal/platform/logging"
	"github.com/pleaguefc/registration-api/internal/platform/resilience"
	"github.com/pleaguefc/registration-api/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// NewHTTPServer wires repositories, services and the HTTP router. The
// returned cleanup releases the DB pool and the notifier worker pool.
func NewHTTPServer(cfg config.Config, logger *slog.Logger, zlogger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	if zlogger == nil {
		zlogger = logging.NewNop()
	}

	cleanups := make([]func(), 0, 2)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	teamRepo, dbCleanup, err := newTeamRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if dbCleanup != nil {
		cleanups = append(cleanups, dbCleanup)
	}

	var notifier usecase.Notifier
	if cfg.NotifierEnabled {
		webhookNotifier, err := notify.NewWebhookNotifier(notify.Config{
			WebhookURL: cfg.NotifierWebhookURL,
			Token:      cfg.NotifierToken,
			Timeout:    cfg.NotifierTimeout,
			PoolSize:   cfg.NotifierPoolSize,
			Logger:     zlogger,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("build notifier: %w", err)
		}
		cleanups = append(cleanups, webhookNotifier.Close)
		notifier = webhookNotifier
	}

	provider := cashfree.NewClient(cashfree.ClientConfig{
		BaseURL:       cfg.CashfreeBaseURL,
		AppID:         cfg.CashfreeAppID,
		Secret:        cfg.CashfreeSecret,
		WebhookSecret: cfg.CashfreeWebhookSecret,
		Timeout:       cfg.CashfreeTimeout,
		MaxRetries:    cfg.CashfreeMaxRetries,
		Logger:        zlogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CashfreeCircuitEnabled,
			FailureThreshold: cfg.CashfreeCircuitFailureCount,
			OpenTimeout:      cfg.CashfreeCircuitOpenTimeout,
		},
	})

	registrationSvc := usecase.NewRegistrationService(
		teamRepo,
		code.NewRandomGenerator(cfg.TeamCodePrefix),
		notifier,
		logger,
	)
	paymentSvc := usecase.NewPaymentService(
		teamRepo,
		provider,
		cfg.RegistrationFee,
		cfg.RegistrationCurrency,
		logger,
	)

	handler := httpapi.NewHandler(registrationSvc, paymentSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

// newTeamRepository picks the postgres store when DB_URL is set and falls
// back to the in-memory store for DB-less runs.
func newTeamRepository(cfg config.Config, logger *slog.Logger) (team.Repository, func(), error) {
	if cfg.DBURL == "" {
		logger.Info("DB_URL not set, using in-memory team store")
		return memory.NewTeamRepository(), nil, nil
	}

	db, err := connectDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("connected to postgres", "database", databaseName(cfg.DBURL))
	return postgres.NewTeamRepository(db), func() { _ = db.Close() }, nil
}

func connectDB(cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Connect("postgres", postgresDSN(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(databaseName(cfg.DBURL)),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

// postgresDSN appends disable_prepared_binary_result=yes unless the
// operator already pinned a value in the URL.
func postgresDSN(raw string, disableBinaryResults bool) string {
	if !disableBinaryResults {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Has("disable_prepared_binary_result") {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// databaseName extracts the database from either a postgres:// URL or a
// key=value DSN, for log lines and trace attributes only.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)

	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		if name := strings.TrimPrefix(parsed.Path, "/"); name != "" {
			return name
		}
	}

	for _, pair := range strings.Fields(dsn) {
		key, value, ok := strings.Cut(pair, "=")
		if ok && key == "dbname" {
			return strings.Trim(value, `"'`)
		}
	}

	return ""
}

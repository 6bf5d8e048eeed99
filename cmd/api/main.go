package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	"rotorcharter/internal/config"
	"rotorcharter/internal/crm"
	"rotorcharter/internal/database"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/metrics"
	"rotorcharter/internal/normalize"
	"rotorcharter/internal/notify"
	"rotorcharter/internal/ratelimit"
	"rotorcharter/internal/server"
	"rotorcharter/internal/services"
	"rotorcharter/internal/store"
	"rotorcharter/internal/util"
)

const (
	shutdownTimeout  = 30 * time.Second
	readTimeout      = 15 * time.Second
	writeTimeout     = 30 * time.Second
	idleTimeout      = 60 * time.Second
	dbStatsInterval  = 15 * time.Second
	rateLimitWindow  = time.Minute
	startupTimeout   = 30 * time.Second
	defaultSecretKey = "your-secret-key-change-in-production"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// stores holds the open record and user databases.
type stores struct {
	contacts store.Repository[domain.ContactRecord]
	quotes   store.Repository[domain.QuoteRecord]
	users    *gorm.DB
	records  *gorm.DB
	mongo    *mongo.Client
}

func (s *stores) close(log *slog.Logger) {
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			log.Error("error closing mongodb", "error", err)
		}
	}
	if s.records != nil && s.records != s.users {
		if err := database.Close(s.records); err != nil {
			log.Error("error closing records database", "error", err)
		}
	}
	if s.users != nil {
		if err := database.Close(s.users); err != nil {
			log.Error("error closing users database", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}

	if cfg.Database.IsMongo() {
		client, db, err := database.OpenMongo(ctx, cfg.Database.URL, cfg.Database.MongoDatabaseName(), log)
		if err != nil {
			return nil, err
		}
		st.mongo = client
		contacts := store.NewMongoContactRepository(db)
		quotes := store.NewMongoQuoteRepository(db)
		for _, ensure := range []func(context.Context) error{contacts.EnsureIndexes, quotes.EnsureIndexes} {
			if err := ensure(ctx); err != nil {
				st.close(log)
				return nil, err
			}
		}
		st.contacts, st.quotes = contacts, quotes
	} else {
		db, err := database.Open(cfg.Database.URL, log)
		if err != nil {
			return nil, err
		}
		st.records = db
		if err := database.MigrateRecords(db); err != nil {
			st.close(log)
			return nil, err
		}
		st.contacts = store.NewGormContactRepository(db)
		st.quotes = store.NewGormQuoteRepository(db)
	}

	if usersURL := cfg.Database.UsersURL(); st.records != nil && usersURL == cfg.Database.URL {
		st.users = st.records
	} else {
		db, err := database.Open(usersURL, log)
		if err != nil {
			st.close(log)
			return nil, err
		}
		st.users = db
	}
	if err := database.MigrateUsers(st.users); err != nil {
		st.close(log)
		return nil, err
	}
	return st, nil
}

func newLimiter(ctx context.Context, cfg *config.RateLimitConfig, log *slog.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.SubmitPerMinute == 0 {
		log.Warn("submission rate limiting disabled")
		return nil, func() {}, nil
	}
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis rate limiter", "per_minute", cfg.SubmitPerMinute)
		return ratelimit.NewRedisLimiter(rdb, cfg.SubmitPerMinute, rateLimitWindow), func() { _ = rdb.Close() }, nil
	}
	l := ratelimit.NewMemoryLimiter(cfg.SubmitPerMinute, rateLimitWindow)
	log.Info("using in-memory rate limiter", "per_minute", cfg.SubmitPerMinute)
	return l, l.Stop, nil
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("starting",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
		"port", cfg.App.Port,
		"host", cfg.App.Host,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := openStores(startCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.close(log)

	limiter, stopLimiter, err := newLimiter(startCtx, &cfg.RateLimit, log)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer stopLimiter()

	mailer := notify.NewMailer(&cfg.Email, log)
	notifier := notify.NewNotifier(mailer, &cfg.Notify, log)
	leads := crm.NewClient(&cfg.CRM, log)
	log.Info("side-channels configured", "email", mailer.IsEnabled(), "crm", leads.IsEnabled())

	n := normalize.New(cfg.Intake.PhoneRegion)
	opts := services.Options{NotifyTimeout: cfg.Notify.Timeout, ForwardTimeout: cfg.CRM.Timeout}
	contacts := services.NewContactService(st.contacts, n, notifier, leads, opts, log)
	quotes := services.NewQuoteService(st.quotes, n, notifier, leads, opts, log)

	tokens := util.NewTokenIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
	auth := services.NewAuthService(st.users, tokens, log)

	health := services.NewHealthService(cfg.App.Name, cfg.App.Version, map[string]services.Pinger{
		"records": contacts,
		"users": services.PingFunc(func(ctx context.Context) error {
			return database.Ping(ctx, st.users)
		}),
	})

	srv := server.New(cfg, server.Deps{
		Contacts: contacts,
		Quotes:   quotes,
		Auth:     auth,
		Health:   health,
		Limiter:  limiter,
	}, log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if st.records != nil {
		go reportDBStats(ctx, st.records, log)
	}

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("starting graceful shutdown", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during graceful shutdown", "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			_ = httpServer.Close()
		}
	}

	// Let in-flight CRM forwards finish before the stores close.
	for name, w := range map[string]interface{ Wait(context.Context) error }{"contact": contacts, "quote": quotes} {
		if err := w.Wait(shutdownCtx); err != nil {
			log.Warn("crm forwarding still running at shutdown", "kind", name, "error", err)
		}
	}

	log.Info("server shutdown complete")
	return nil
}

// reportDBStats publishes connection pool gauges until ctx is done.
func reportDBStats(ctx context.Context, db *gorm.DB, log *slog.Logger) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := database.Stats(db)
			if err != nil {
				log.Warn("could not read database stats", "error", err)
				continue
			}
			metrics.UpdateDBConnections(stats.InUse, stats.Idle)
		}
	}
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.App.Debug {
		return nil
	}
	if cfg.Auth.SecretKey == defaultSecretKey {
		return fmt.Errorf("SECRET_KEY must be changed from default value")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters for security")
	}
	return nil
}

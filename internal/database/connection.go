package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"rotorcharter/internal/config"
	"rotorcharter/internal/domain"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Open connects to the PostgreSQL or SQLite database named by url and
// verifies the connection.
func Open(url string, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	postgresURL := isPostgres(url)

	if postgresURL {
		log.Info("connecting to PostgreSQL database")
		dialector = postgres.Open(config.GetPostgresDSN(url))
	} else {
		dbPath := config.GetSQLitePath(url)
		log.Info("connecting to SQLite database", "path", dbPath)
		sqlDB, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		if dbPath == ":memory:" {
			// Each connection to :memory: is a separate database.
			sqlDB.SetMaxOpenConns(1)
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       sqlDB,
		}
	}

	// SQL is never logged; errors are returned to callers.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if postgresURL {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}

		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

		log.Info("connection pool configured", "max_open", maxOpenConns, "max_idle", maxIdleConns)
	}

	if err := Ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}
	return db, nil
}

// MigrateUsers creates the operator account table.
func MigrateUsers(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate users: %w", err)
	}
	return nil
}

// MigrateRecords creates the contact and quote tables.
func MigrateRecords(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.ContactRecord{}, &domain.QuoteRecord{}); err != nil {
		return fmt.Errorf("failed to migrate records: %w", err)
	}
	return nil
}

// Ping checks the connection within a short timeout.
func Ping(ctx context.Context, db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats returns connection pool statistics.
func Stats(db *gorm.DB) (*sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	stats := sqlDB.Stats()
	return &stats, nil
}

// OpenMongo connects to MongoDB and returns the named database.
func OpenMongo(ctx context.Context, uri, name string, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	log.Info("connecting to MongoDB", "database", name)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	return client, client.Database(name), nil
}

func isPostgres(url string) bool {
	c := config.DatabaseConfig{URL: url}
	return c.IsPostgres()
}

// Package itf provisions throwaway Postgres databases for integration tests.
package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
)

// EnvAdminDSN names a connection string with CREATE DATABASE rights.
// Integration tests are skipped when it is unset.
const EnvAdminDSN = "DB_TEST_DSN"

const (
	// PostgreSQL database name maximum length is 63 characters
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

// DatabaseManager owns one database created for a single test.
type DatabaseManager struct {
	pool   *pgxpool.Pool
	dsn    string
	dbName string
}

// NewDatabaseManager creates a fresh database named after the test and drops it on cleanup.
func NewDatabaseManager(tb testing.TB) *DatabaseManager {
	tb.Helper()
	adminDSN := os.Getenv(EnvAdminDSN)
	if adminDSN == "" {
		tb.Skipf("%s is not set", EnvAdminDSN)
	}

	dbName := sanitizeDBName(tb.Name())
	if err := recreateDB(adminDSN, dbName); err != nil {
		tb.Fatalf("itf: %v", err)
	}
	dsn, err := withDatabase(adminDSN, dbName)
	if err != nil {
		tb.Fatalf("itf: %v", err)
	}
	pool, err := NewPool(dsn)
	if err != nil {
		tb.Fatalf("itf: %v", err)
	}

	dm := &DatabaseManager{pool: pool, dsn: dsn, dbName: dbName}
	tb.Cleanup(func() {
		dm.pool.Close()
		if err := dropDB(adminDSN, dbName); err != nil {
			tb.Logf("itf: drop %s: %v", dbName, err)
		}
	})
	return dm
}

func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

func (dm *DatabaseManager) Pool() *pgxpool.Pool {
	return dm.pool
}

func (dm *DatabaseManager) DSN() string {
	return dm.dsn
}

// Context returns a background context bound to the test pool.
func (dm *DatabaseManager) Context() context.Context {
	return composables.WithPool(context.Background(), dm.pool)
}

// Migrate applies the goose migrations found at dir in fsys.
func (dm *DatabaseManager) Migrate(tb testing.TB, fsys fs.FS, dir string) {
	tb.Helper()
	db, err := application.Open(dm.dsn)
	if err != nil {
		tb.Fatalf("itf: %v", err)
	}
	defer db.Close()

	migrations := application.NewMigrationManager()
	if err := migrations.RegisterSchema(fsys, dir); err != nil {
		tb.Fatalf("itf: %v", err)
	}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if err := migrations.Up(context.Background(), db, logrus.NewEntry(logger)); err != nil {
		tb.Fatalf("itf: %v", err)
	}
}

func recreateDB(adminDSN, name string) error {
	return withAdmin(adminDSN, func(db *sql.DB) error {
		if _, err := db.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
			return err
		}
		_, err := db.ExecContext(context.Background(), "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
		return err
	})
}

func dropDB(adminDSN, name string) error {
	return withAdmin(adminDSN, func(db *sql.DB) error {
		_, err := db.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)")
		return err
	})
}

func withAdmin(adminDSN string, fn func(db *sql.DB) error) error {
	db, err := application.Open(adminDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// withDatabase rewrites dsn to point at database name.
func withDatabase(dsn, name string) (string, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, name,
	), nil
}

// sanitizeDBName lowercases name, replaces characters Postgres would need quoted with
// underscores, and keeps the result within the 63-character identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(name)))[:8]
	return sanitized[:maxDBNameLength-hashSuffixLength] + "_" + hash
}

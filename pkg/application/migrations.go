package application

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// MigrationManager applies the registered goose schema directory.
type MigrationManager struct {
	source fs.FS
}

func NewMigrationManager() *MigrationManager {
	return &MigrationManager{}
}

// RegisterSchema adds the goose migration files found at dir in fsys.
func (m *MigrationManager) RegisterSchema(fsys fs.FS, dir string) error {
	if m.source != nil {
		return fmt.Errorf("migrations: schema already registered")
	}
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	m.source = sub
	return nil
}

func (m *MigrationManager) provider(db *sql.DB) (*goose.Provider, error) {
	if m.source == nil {
		return nil, fmt.Errorf("migrations: no schema registered")
	}
	return goose.NewProvider(goose.DialectPostgres, db, m.source)
}

// Open connects with lib/pq; goose drives database/sql.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("migrations: open: %w", err)
	}
	return db, nil
}

func (m *MigrationManager) Up(ctx context.Context, db *sql.DB, log *logrus.Entry) error {
	p, err := m.provider(db)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	for _, r := range results {
		log.WithField("version", r.Source.Version).WithField("duration", r.Duration).Info("migration applied")
	}
	if err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}

func (m *MigrationManager) Down(ctx context.Context, db *sql.DB, log *logrus.Entry) error {
	p, err := m.provider(db)
	if err != nil {
		return err
	}
	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrations: down: %w", err)
	}
	if r != nil {
		log.WithField("version", r.Source.Version).Info("migration rolled back")
	}
	return nil
}

type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

func (m *MigrationManager) Status(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	p, err := m.provider(db)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrations: status: %w", err)
	}
	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

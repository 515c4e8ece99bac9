// Package sqlite implements the durable, audit-logged event store over
// a local SQLite file. One database file backs one event; every data
// write shares a transaction with the audit entry that describes it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"

	"github.com/ibsc/brickscore/internal/domain/audit"
	"github.com/ibsc/brickscore/internal/platform/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const schemaVersion = "3"

// Pre-provisioned databases follow EVENTCODE-YYYYMMDD.db.
var provisionedDBPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]+)-(\d{8})\.db$`)

// Config carries everything Open needs beyond the directory itself.
type Config struct {
	// Dir is searched for pre-provisioned event databases and receives
	// the fallback database file. Empty means the working directory.
	Dir         string
	AppVersion  string
	PackVersion string
	Logger      *logging.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store is the single source of truth for teams, scores and the audit
// trail. It expects one writer; the event controller serializes access.
type Store struct {
	db     *sqlx.DB
	logger *logging.Logger
	now    func() time.Time
	closed bool
}

// Open reuses the pre-provisioned event database closest to today
// without being in the past, or creates a fresh store keyed by today's
// date. A fresh schema is audited as db_created, an existing one as
// db_opened.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	filename, err := findProvisionedDB(dir, now())
	if err != nil {
		return nil, fmt.Errorf("scan for provisioned database: %w", err)
	}
	if filename == "" {
		// Multiple events on one machine on one day are not supported.
		filename = now().Format("20060102") + "-event.db"
	}
	path := filepath.Join(dir, filename)

	db, err := otelsqlx.ConnectContext(ctx, "sqlite", path,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName(filename),
	)
	if err != nil {
		return nil, fmt.Errorf("open event database %s: %w", path, err)
	}
	// SQLite allows one writer; a second connection would only block.
	db.SetMaxOpenConns(1)

	fresh, err := isFreshSchema(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect schema: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event database %s: %w", path, err)
	}

	s := &Store{db: db, logger: logger, now: now}

	if fresh {
		if err := s.initMeta(ctx); err != nil {
			db.Close()
			return nil, err
		}
		err = s.writeAudit(ctx, s.db, audit.StoreCreated{AppVersion: cfg.AppVersion, PackVersion: cfg.PackVersion})
	} else {
		err = s.writeAudit(ctx, s.db, audit.StoreOpened{AppVersion: cfg.AppVersion, PackVersion: cfg.PackVersion})
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("event store opened", "path", path, "fresh", fresh)

	return s, nil
}

// Close writes the db_closed audit entry and releases the handle. It
// must be called exactly once; the store is unusable afterward.
func (s *Store) Close(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("event store already closed")
	}
	s.closed = true

	auditErr := s.writeAudit(ctx, s.db, audit.StoreClosed{})
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close event database: %w", err)
	}

	return auditErr
}

// findProvisionedDB returns the provisioned database in dir whose date
// is today or later, picking the closest such date. Empty when none
// qualifies.
func findProvisionedDB(dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	// Compare calendar dates in the machine's own location; the venue
	// laptop's wall clock decides which event day it is, not UTC.
	today := now.Format("20060102")
	var best string
	var bestDate string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := provisionedDBPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if _, err := time.Parse("20060102", m[2]); err != nil {
			continue
		}
		if m[2] < today {
			continue
		}
		if best == "" || m[2] < bestDate {
			best = entry.Name()
			bestDate = m[2]
		}
	}

	return best, nil
}

func isFreshSchema(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'teams'`)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func applyMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (s *Store) initMeta(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// execer covers both *sqlx.DB and *sqlx.Tx so audit writes can join
// whichever unit of work the data write runs in.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

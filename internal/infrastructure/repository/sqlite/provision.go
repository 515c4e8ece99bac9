package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

var eventCodePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]+$`)

// Provision creates the pre-provisioned event database
// EVENTCODE-YYYYMMDD.db in dir with the full schema applied, so the
// machine at the venue can open it without any setup. Re-running on an
// existing file is harmless; applied migrations are skipped.
func Provision(ctx context.Context, dir, eventCode string, date time.Time) (string, error) {
	if !eventCodePattern.MatchString(eventCode) {
		return "", fmt.Errorf("event code %q must be alphanumeric and start with a letter", eventCode)
	}
	if dir == "" {
		dir = "."
	}

	filename := fmt.Sprintf("%s-%s.db", eventCode, date.Format("20060102"))
	path := filepath.Join(dir, filename)

	db, err := otelsqlx.ConnectContext(ctx, "sqlite", path,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName(filename),
	)
	if err != nil {
		return "", fmt.Errorf("create event database %s: %w", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		return "", fmt.Errorf("migrate event database %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initMeta(ctx); err != nil {
		return "", err
	}

	return path, nil
}

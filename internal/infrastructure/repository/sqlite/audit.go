package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ibsc/brickscore/internal/domain/audit"
)

// AuditRow is one stored audit entry, as read back for inspection.
type AuditRow struct {
	Timestamp float64 `db:"timestamp"`
	Tag       string  `db:"tag"`
	Data      string  `db:"data"`
}

func (s *Store) writeAudit(ctx context.Context, ex execer, p audit.Payload) error {
	at := s.now()
	data, err := audit.EncodePayload(at, p)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO audit (timestamp, tag, data) VALUES (?, ?, ?)`,
		unixSeconds(at), string(p.Tag()), data)
	if err != nil {
		return fmt.Errorf("write audit entry %q: %w", p.Tag(), err)
	}

	return nil
}

// LoadAudit returns the full audit trail in insertion order.
func (s *Store) LoadAudit(ctx context.Context) ([]AuditRow, error) {
	var rows []AuditRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT timestamp, tag, data FROM audit ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return rows, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

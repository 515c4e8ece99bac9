package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ibsc/brickscore/internal/domain/matchlog"
)

// WriteLogEntry appends one operational log row. Log rows are
// diagnostics and reporting input, not part of the audit trail.
func (s *Store) WriteLogEntry(ctx context.Context, tag, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log (timestamp, tag, message) VALUES (?, ?, ?)`,
		unixSeconds(s.now()), tag, message)
	if err != nil {
		return fmt.Errorf("write log entry %q: %w", tag, err)
	}
	return nil
}

// MatchStartTimes collapses match_start log rows to the latest start
// per match number, ordered by match number ascending. A restarted
// match therefore reports its most recent start.
func (s *Store) MatchStartTimes(ctx context.Context) ([]matchlog.MatchStart, error) {
	var rows []matchStartModel
	err := s.db.SelectContext(ctx, &rows, `
		SELECT message, MAX(timestamp) AS latest_timestamp
		FROM log
		WHERE tag = ?
		GROUP BY message
		ORDER BY CAST(message AS INTEGER)`,
		matchlog.TagMatchStart)
	if err != nil {
		return nil, fmt.Errorf("query match start times: %w", err)
	}

	out := make([]matchlog.MatchStart, 0, len(rows))
	for _, row := range rows {
		num, err := strconv.Atoi(row.Message)
		if err != nil {
			// Malformed rows are skipped rather than failing the report.
			continue
		}
		out = append(out, matchlog.MatchStart{
			MatchNumber: num,
			StartedAt:   fromUnixSeconds(row.Latest),
		})
	}

	return out, nil
}

func fromUnixSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}

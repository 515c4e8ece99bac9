package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ibsc/brickscore/internal/domain/audit"
	"github.com/ibsc/brickscore/internal/domain/score"
)

// UpsertScore replaces any existing score for (team, round) and audits
// the change with the prior value; old_score is null when none existed.
// Range validation happens one layer up; the store only enforces the
// upsert key.
func (s *Store) UpsertScore(ctx context.Context, entry score.Entry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert score: %w", err)
	}
	defer tx.Rollback()

	var oldScore *int
	var prev int
	err = tx.GetContext(ctx, &prev,
		`SELECT score FROM scores WHERE teamnumber = ? AND round = ?`,
		entry.TeamNumber, entry.Round)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select existing score: %w", err)
		}
	} else {
		oldScore = &prev
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO scores (slug, teamnumber, round, score, comments) VALUES (?, ?, ?, ?, ?)`,
		entry.Slug(), entry.TeamNumber, entry.Round, entry.Score, entry.Comments); err != nil {
		return fmt.Errorf("upsert score %s: %w", entry.Slug(), err)
	}

	if err := s.writeAudit(ctx, tx, audit.ScoreUpdated{
		TeamNumber: entry.TeamNumber,
		Round:      entry.Round,
		OldScore:   oldScore,
		NewScore:   entry.Score,
		Comments:   entry.Comments,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert score %s: %w", entry.Slug(), err)
	}

	return nil
}

// UpsertScoresheet round-trips the opaque serialized scoresheet for
// (team, round), audited like a score change.
func (s *Store) UpsertScoresheet(ctx context.Context, number, round int, scoresheet string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert scoresheet: %w", err)
	}
	defer tx.Rollback()

	var oldSheet *string
	var prev string
	err = tx.GetContext(ctx, &prev,
		`SELECT scoresheet FROM scoresheets WHERE teamnumber = ? AND round = ?`,
		number, round)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select existing scoresheet: %w", err)
		}
	} else {
		oldSheet = &prev
	}

	slug := fmt.Sprintf("%d-%d", number, round)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO scoresheets (slug, teamnumber, round, scoresheet) VALUES (?, ?, ?, ?)`,
		slug, number, round, scoresheet); err != nil {
		return fmt.Errorf("upsert scoresheet %s: %w", slug, err)
	}

	if err := s.writeAudit(ctx, tx, audit.ScoresheetUpdated{
		TeamNumber:    number,
		Round:         round,
		OldScoresheet: oldSheet,
		NewScoresheet: scoresheet,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert scoresheet %s: %w", slug, err)
	}

	return nil
}

// LoadScores reads the full score table for startup state rebuild.
func (s *Store) LoadScores(ctx context.Context) ([]score.Entry, error) {
	var rows []scoreTableModel
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT slug, teamnumber, round, score, comments FROM scores`); err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	out := make([]score.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, score.Entry{
			TeamNumber: row.TeamNumber,
			Round:      row.Round,
			Score:      row.Score,
			Comments:   row.Comments,
		})
	}

	return out, nil
}

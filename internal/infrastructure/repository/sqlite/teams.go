package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ibsc/brickscore/internal/domain/audit"
	"github.com/ibsc/brickscore/internal/domain/team"
)

// UpsertTeam creates a team on first sight of number and replaces its
// name and pit afterwards. This is the only rename path. The audit
// entry (team_add, or team_update with old and new values) commits in
// the same transaction as the row.
func (s *Store) UpsertTeam(ctx context.Context, number int, name string, pit int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert team: %w", err)
	}
	defer tx.Rollback()

	var old teamTableModel
	err = tx.GetContext(ctx, &old,
		`SELECT teamnumber, name, pit FROM teams WHERE teamnumber = ?`, number)
	exists := true
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select existing team: %w", err)
		}
		exists = false
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO teams (teamnumber, name, pit) VALUES (?, ?, ?)`,
		number, name, pit); err != nil {
		return fmt.Errorf("upsert team %d: %w", number, err)
	}

	var payload audit.Payload
	if exists {
		payload = audit.TeamUpdated{
			TeamNumber: number,
			OldName:    old.Name,
			NewName:    name,
			OldPit:     old.Pit,
			NewPit:     pit,
		}
	} else {
		payload = audit.TeamAdded{TeamNumber: number, Name: name}
	}
	if err := s.writeAudit(ctx, tx, payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert team %d: %w", number, err)
	}

	return nil
}

// DeleteTeam removes the team row plus all of its score and scoresheet
// rows as one transaction. Each removal is audited individually; a
// failure anywhere rolls back the whole cascade.
func (s *Store) DeleteTeam(ctx context.Context, number int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete team: %w", err)
	}
	defer tx.Rollback()

	if err := s.writeAudit(ctx, tx, audit.TeamDeleted{TeamNumber: number}); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM teams WHERE teamnumber = ?`, number); err != nil {
		return fmt.Errorf("delete team %d: %w", number, err)
	}

	var scores []scoreTableModel
	if err := tx.SelectContext(ctx, &scores,
		`SELECT slug, teamnumber, round, score, comments FROM scores WHERE teamnumber = ?`,
		number); err != nil {
		return fmt.Errorf("select scores for delete: %w", err)
	}
	for _, row := range scores {
		if err := s.writeAudit(ctx, tx, audit.ScoreDeleted{
			TeamNumber: number,
			Round:      row.Round,
			OldScore:   row.Score,
		}); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scores WHERE slug = ?`, row.Slug); err != nil {
			return fmt.Errorf("delete score %s: %w", row.Slug, err)
		}
	}

	var sheets []scoresheetTableModel
	if err := tx.SelectContext(ctx, &sheets,
		`SELECT slug, teamnumber, round, scoresheet FROM scoresheets WHERE teamnumber = ?`,
		number); err != nil {
		return fmt.Errorf("select scoresheets for delete: %w", err)
	}
	for _, row := range sheets {
		if err := s.writeAudit(ctx, tx, audit.ScoresheetDeleted{
			TeamNumber:    number,
			Round:         row.Round,
			OldScoresheet: row.Scoresheet,
		}); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scoresheets WHERE slug = ?`, row.Slug); err != nil {
			return fmt.Errorf("delete scoresheet %s: %w", row.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete team %d: %w", number, err)
	}

	return nil
}

// LoadTeams reads the full team table for startup state rebuild.
func (s *Store) LoadTeams(ctx context.Context) ([]team.Record, error) {
	var rows []teamTableModel
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT teamnumber, name, pit FROM teams`); err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}

	out := make([]team.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Record{
			Number: row.TeamNumber,
			Name:   row.Name,
			Pit:    row.Pit,
		})
	}

	return out, nil
}

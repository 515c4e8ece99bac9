package team

import (
	"context"

	"github.com/ibsc/brickscore/internal/domain/score"
)

// Record is a persisted team row, before any scores are folded in.
type Record struct {
	Number int
	Name   string
	Pit    int
}

// Repository describes the durable, audit-logged store the event
// controller writes through. Implementations must write the audit entry
// in the same transaction as the row change it describes.
//
// The store expects a single writer; callers serialize access.
type Repository interface {
	UpsertTeam(ctx context.Context, number int, name string, pit int) error
	UpsertScore(ctx context.Context, entry score.Entry) error
	UpsertScoresheet(ctx context.Context, number, round int, scoresheet string) error
	// DeleteTeam removes the team row and cascades to its score and
	// scoresheet rows in one transaction, auditing each removal.
	DeleteTeam(ctx context.Context, number int) error
	LoadTeams(ctx context.Context) ([]Record, error)
	LoadScores(ctx context.Context) ([]score.Entry, error)
}

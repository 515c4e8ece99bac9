package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ibsc/brickscore/internal/domain/matchlog"
	"github.com/ibsc/brickscore/internal/domain/ranking"
	"github.com/ibsc/brickscore/internal/domain/score"
	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/infrastructure/reflector"
	"github.com/ibsc/brickscore/internal/platform/logging"
)

// MatchLogger records operational log rows (match starts and the like).
type MatchLogger interface {
	WriteLogEntry(ctx context.Context, tag, message string) error
}

// Syncer is the outbound replication surface; satisfied by
// *syncqueue.Dispatcher. Enqueues never block and never fail.
type Syncer interface {
	EnqueueTeams(teams []team.Team)
	EnqueueMatchStatus(match int, status string)
	EnqueueScore(teamNumber, round, score int)
	ForceSync(match int, status string, teams []team.Team) error
}

// TeamImport is one roster row arriving from CSV import.
type TeamImport struct {
	Number int
	Name   string
	Pit    int
	// Scores holds per-round values; team.NotPlayed marks unplayed
	// slots. WithScores controls whether they are persisted at all.
	Scores     [team.Rounds]int
	WithScores bool
}

// EventService orchestrates every mutation: it writes through the
// store, recomputes the ranking and enqueues a sync message, then
// notifies change listeners. It owns the in-memory roster.
//
// The store contract is single-writer; the internal mutex enforces it
// even when multiple collaborators (HTTP handlers, CSV import) call in
// concurrently.
type EventService struct {
	repo     team.Repository
	matchLog MatchLogger
	sync     Syncer
	logger   *logging.Logger

	mu          sync.Mutex
	teams       []team.Team
	matchNumber int
	listeners   []func([]team.Team)
}

func NewEventService(repo team.Repository, matchLog MatchLogger, syncer Syncer, logger *logging.Logger) *EventService {
	if logger == nil {
		logger = logging.Default()
	}

	return &EventService{
		repo:        repo,
		matchLog:    matchLog,
		sync:        syncer,
		logger:      logger,
		matchNumber: 1,
	}
}

// Load rebuilds the in-memory roster from the store. Called once at
// startup before any mutation.
func (s *EventService) Load(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.Load")
	defer span.End()

	records, err := s.repo.LoadTeams(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	scores, err := s.repo.LoadScores(ctx)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams = make([]team.Team, 0, len(records))
	for _, r := range records {
		s.teams = append(s.teams, team.New(r.Number, r.Name, r.Pit))
	}
	for _, entry := range scores {
		if t := s.lookup(entry.TeamNumber); t != nil {
			t.SetScore(entry.Round, entry.Score)
		}
	}

	s.rerankLocked()
	s.sync.EnqueueTeams(s.snapshotLocked())

	s.logger.Info("event state restored", "teams", len(s.teams), "scores", len(scores))

	return nil
}

// AddTeam creates a team. Numbers are unique across the live set;
// re-adding an existing number is a validation error (renames go
// through RenameTeam).
func (s *EventService) AddTeam(ctx context.Context, number int, name string, pit int) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.AddTeam")
	defer span.End()

	t := team.New(number, name, pit)
	if err := t.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookup(number) != nil {
		return team.Team{}, fmt.Errorf("%w: team %d already exists", ErrInvalidInput, number)
	}

	if err := s.repo.UpsertTeam(ctx, number, name, pit); err != nil {
		return team.Team{}, fmt.Errorf("persist team %d: %w", number, err)
	}

	s.teams = append(s.teams, t)
	s.rerankLocked()
	s.sync.EnqueueTeams(s.snapshotLocked())

	return *s.lookup(number), nil
}

// ImportTeams adds a batch of teams, optionally with their round
// scores, as one roster update. Rows are validated up front so a bad
// file is rejected before anything is persisted.
func (s *EventService) ImportTeams(ctx context.Context, imports []TeamImport) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.ImportTeams")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, imp := range imports {
		t := team.New(imp.Number, imp.Name, imp.Pit)
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("%w: team %d: %v", ErrInvalidInput, imp.Number, err)
		}
		if s.lookup(imp.Number) != nil {
			return 0, fmt.Errorf("%w: team %d already exists", ErrInvalidInput, imp.Number)
		}
		for round := 1; round <= team.Rounds; round++ {
			if !score.ValidScore(imp.Scores[round-1], team.MaxScore) {
				return 0, fmt.Errorf("%w: team %d round %d score out of range", ErrInvalidInput, imp.Number, round)
			}
		}
	}

	for _, imp := range imports {
		if err := s.repo.UpsertTeam(ctx, imp.Number, imp.Name, imp.Pit); err != nil {
			return 0, fmt.Errorf("persist team %d: %w", imp.Number, err)
		}
		t := team.New(imp.Number, imp.Name, imp.Pit)

		if imp.WithScores {
			for round := 1; round <= team.Rounds; round++ {
				entry := score.Entry{
					TeamNumber: imp.Number,
					Round:      round,
					Score:      imp.Scores[round-1],
				}
				if err := s.repo.UpsertScore(ctx, entry); err != nil {
					return 0, fmt.Errorf("persist score for team %d round %d: %w", imp.Number, round, err)
				}
				t.SetScore(round, entry.Score)
			}
		}

		s.teams = append(s.teams, t)
	}

	s.rerankLocked()
	s.sync.EnqueueTeams(s.snapshotLocked())

	return len(imports), nil
}

// SetScore records a round score for a team.
func (s *EventService) SetScore(ctx context.Context, number, round, points int, comments string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.SetScore")
	defer span.End()

	if !score.ValidRound(round, team.Rounds) {
		return team.Team{}, fmt.Errorf("%w: round %d is not in 1..%d", ErrInvalidInput, round, team.Rounds)
	}
	if !score.ValidScore(points, team.MaxScore) {
		return team.Team{}, fmt.Errorf("%w: score %d is out of range", ErrInvalidInput, points)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.lookup(number)
	if t == nil {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, number)
	}

	entry := score.Entry{TeamNumber: number, Round: round, Score: points, Comments: comments}
	if err := s.repo.UpsertScore(ctx, entry); err != nil {
		return team.Team{}, fmt.Errorf("persist score for team %d round %d: %w", number, round, err)
	}

	t.SetScore(round, points)
	s.rerankLocked()
	s.sync.EnqueueScore(number, round, points)

	return *s.lookup(number), nil
}

// RecordScoresheet stores the opaque scoresheet payload and the score
// it produced in one workflow step.
func (s *EventService) RecordScoresheet(ctx context.Context, number, round int, sheet string, points int) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.RecordScoresheet")
	defer span.End()

	if !score.ValidRound(round, team.Rounds) {
		return team.Team{}, fmt.Errorf("%w: round %d is not in 1..%d", ErrInvalidInput, round, team.Rounds)
	}
	if !score.ValidScore(points, team.MaxScore) {
		return team.Team{}, fmt.Errorf("%w: score %d is out of range", ErrInvalidInput, points)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.lookup(number)
	if t == nil {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, number)
	}

	if err := s.repo.UpsertScoresheet(ctx, number, round, sheet); err != nil {
		return team.Team{}, fmt.Errorf("persist scoresheet for team %d round %d: %w", number, round, err)
	}

	entry := score.Entry{TeamNumber: number, Round: round, Score: points}
	if err := s.repo.UpsertScore(ctx, entry); err != nil {
		return team.Team{}, fmt.Errorf("persist score for team %d round %d: %w", number, round, err)
	}

	t.SetScore(round, points)
	s.rerankLocked()
	s.sync.EnqueueScore(number, round, points)

	return *s.lookup(number), nil
}

// RenameTeam changes a team's display name. This is the only rename
// path; the team number never changes.
func (s *EventService) RenameTeam(ctx context.Context, number int, name string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.RenameTeam")
	defer span.End()

	if name == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.lookup(number)
	if t == nil {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, number)
	}

	if err := s.repo.UpsertTeam(ctx, number, name, t.Pit); err != nil {
		return team.Team{}, fmt.Errorf("persist rename of team %d: %w", number, err)
	}

	t.Name = name
	s.rerankLocked()
	s.sync.EnqueueTeams(s.snapshotLocked())

	return *t, nil
}

// AssignPit sets a team's staging slot; 0 clears the assignment.
func (s *EventService) AssignPit(ctx context.Context, number, pit int) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.AssignPit")
	defer span.End()

	if pit < 0 {
		return team.Team{}, fmt.Errorf("%w: pit must be zero or positive", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.lookup(number)
	if t == nil {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, number)
	}

	if err := s.repo.UpsertTeam(ctx, number, t.Name, pit); err != nil {
		return team.Team{}, fmt.Errorf("persist pit for team %d: %w", number, err)
	}

	t.Pit = pit
	s.sync.EnqueueTeams(s.snapshotLocked())

	return *t, nil
}

// DeleteTeam removes a team and its scores permanently. Deletion only
// ever happens through this deliberate call.
func (s *EventService) DeleteTeam(ctx context.Context, number int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.DeleteTeam")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookup(number) == nil {
		return fmt.Errorf("%w: team %d", ErrNotFound, number)
	}

	if err := s.repo.DeleteTeam(ctx, number); err != nil {
		return fmt.Errorf("delete team %d: %w", number, err)
	}

	kept := s.teams[:0]
	for _, t := range s.teams {
		if t.Number != number {
			kept = append(kept, t)
		}
	}
	s.teams = kept

	s.rerankLocked()
	s.sync.EnqueueTeams(s.snapshotLocked())

	return nil
}

// StartMatch logs the match start for cycle-time reporting and mirrors
// the running status.
func (s *EventService) StartMatch(ctx context.Context, match int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.StartMatch")
	defer span.End()

	if match < 1 {
		return fmt.Errorf("%w: match number must be positive", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.matchLog.WriteLogEntry(ctx, matchlog.TagMatchStart, strconv.Itoa(match)); err != nil {
		return fmt.Errorf("log match start: %w", err)
	}

	s.matchNumber = match
	s.sync.EnqueueMatchStatus(match, reflector.StatusRunning)

	return nil
}

// AbortMatch mirrors an aborted match; the timer reset itself is a
// display concern.
func (s *EventService) AbortMatch(ctx context.Context, match int) error {
	_, span := startUsecaseSpan(ctx, "usecase.EventService.AbortMatch")
	defer span.End()

	if match < 1 {
		return fmt.Errorf("%w: match number must be positive", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sync.EnqueueMatchStatus(match, reflector.StatusAborted)

	return nil
}

// CompleteMatch advances to the next match and mirrors it as queueing.
// Returns the new current match number.
func (s *EventService) CompleteMatch(ctx context.Context) int {
	_, span := startUsecaseSpan(ctx, "usecase.EventService.CompleteMatch")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.matchNumber++
	s.sync.EnqueueMatchStatus(s.matchNumber, reflector.StatusQueueing)

	return s.matchNumber
}

// ForceSync pushes the full event snapshot to the reflector
// synchronously, outside the queue. The error is operator-visible,
// unlike queued delivery failures.
func (s *EventService) ForceSync(ctx context.Context) error {
	_, span := startUsecaseSpan(ctx, "usecase.EventService.ForceSync")
	defer span.End()

	s.mu.Lock()
	match := s.matchNumber
	teams := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.sync.ForceSync(match, reflector.StatusQueueing, teams); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	return nil
}

// MatchNumber returns the current match number.
func (s *EventService) MatchNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchNumber
}

// Rankings returns the roster in rank order.
func (s *EventService) Rankings() []team.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TeamsByNumber returns the roster ordered by team number.
func (s *EventService) TeamsByNumber() []team.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snapshotLocked()
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ScoresEntered counts recorded round scores across the roster.
func (s *EventService) ScoresEntered() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.teams {
		n += t.ScoresEntered()
	}
	return n
}

// OnChange registers a listener invoked with a roster snapshot after
// every reranking mutation. Listeners run on the mutating call.
func (s *EventService) OnChange(listener func([]team.Team)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// lookup returns a pointer into s.teams; callers hold the mutex.
func (s *EventService) lookup(number int) *team.Team {
	for i := range s.teams {
		if s.teams[i].Number == number {
			return &s.teams[i]
		}
	}
	return nil
}

func (s *EventService) rerankLocked() {
	ranking.Rank(s.teams)
	snapshot := s.snapshotLocked()
	for _, listener := range s.listeners {
		listener(snapshot)
	}
}

func (s *EventService) snapshotLocked() []team.Team {
	out := make([]team.Team, len(s.teams))
	copy(out, s.teams)
	return out
}

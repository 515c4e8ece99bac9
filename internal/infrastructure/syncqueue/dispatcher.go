// Package syncqueue relays roster and match-status changes to the
// reflector without blocking the caller. Delivery is fire-and-forget:
// failed messages are logged and dropped, never retried.
package syncqueue

import (
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/infrastructure/reflector"
	"github.com/ibsc/brickscore/internal/platform/logging"
)

// Message is one queued reflector delivery.
type Message interface{ isMessage() }

// TeamsSnapshot carries the full roster for POST /teams.
type TeamsSnapshot struct {
	Teams []reflector.TeamEntry
}

// MatchStatus carries a match-number/status pair for POST /match.
type MatchStatus struct {
	Match  int
	Status string
}

// ScoreUpdate carries one round score for POST /scores.
type ScoreUpdate struct {
	Team  int
	Round int
	Score int
}

// stop makes the worker exit its loop cleanly.
type stop struct{}

func (TeamsSnapshot) isMessage() {}
func (MatchStatus) isMessage()   {}
func (ScoreUpdate) isMessage()   {}
func (stop) isMessage()          {}

// Poster is the reflector surface the dispatcher needs; satisfied by
// *reflector.Client.
type Poster interface {
	PostTeams(teams []reflector.TeamEntry) error
	PostMatch(status reflector.MatchStatus) error
	PostScore(update reflector.ScoreUpdate) error
	PostSync(snapshot reflector.EventSnapshot) error
}

// Credentials become available once the operator supplies reflector
// configuration; until then the queue buffers and nothing is sent.
type Credentials struct {
	SyncURL   string
	EventCode string
	APIKey    string
	// Timeout bounds each reflector request; zero means the client
	// default.
	Timeout time.Duration
}

// Dispatcher owns the outbound queue and its single background worker.
type Dispatcher struct {
	queue     *fifo
	logger    *logging.Logger
	newPoster func(Credentials) Poster

	ready     chan struct{}
	readyOnce sync.Once

	stopping chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	poster Poster

	pool *ants.Pool
	done chan struct{}
}

// New builds a dispatcher. newPoster may be nil, in which case
// credentials are turned into a real reflector client.
func New(logger *logging.Logger, newPoster func(Credentials) Poster) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if newPoster == nil {
		newPoster = func(c Credentials) Poster {
			return reflector.NewClient(reflector.Config{
				SyncURL:   c.SyncURL,
				EventCode: c.EventCode,
				APIKey:    c.APIKey,
				Timeout:   c.Timeout,
				Logger:    logger,
			})
		}
	}

	return &Dispatcher{
		queue:     newFIFO(),
		logger:    logger,
		newPoster: newPoster,
		ready:     make(chan struct{}),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background worker. The worker first waits for
// Configure, then drains the queue until Stop. A dead sync worker would
// silently disable replication, so the loop runs on a supervised pool
// that restarts it after an escaped panic.
func (d *Dispatcher) Start() error {
	pool, err := ants.NewPool(1, ants.WithPanicHandler(func(r any) {
		d.logger.Error("sync worker crashed, restarting", "panic", r)
		if err := d.pool.Submit(d.run); err != nil {
			d.logger.Error("sync worker restart failed", "error", err)
		}
	}))
	if err != nil {
		return fmt.Errorf("create sync worker pool: %w", err)
	}
	d.pool = pool

	if err := pool.Submit(d.run); err != nil {
		return fmt.Errorf("start sync worker: %w", err)
	}

	return nil
}

// Configure supplies reflector credentials and releases the worker.
// Only the first call takes effect.
func (d *Dispatcher) Configure(creds Credentials) {
	d.readyOnce.Do(func() {
		d.mu.Lock()
		d.poster = d.newPoster(creds)
		d.mu.Unlock()
		close(d.ready)
		d.logger.Info("sync configured", "event_code", creds.EventCode)
	})
}

// EnqueueTeams queues a full roster snapshot.
func (d *Dispatcher) EnqueueTeams(teams []team.Team) {
	entries := make([]reflector.TeamEntry, 0, len(teams))
	for _, t := range teams {
		entries = append(entries, reflector.TeamEntry{Name: t.Name, Number: t.Number, Pit: t.Pit})
	}
	d.queue.push(TeamsSnapshot{Teams: entries})
}

// EnqueueMatchStatus queues a match status change.
func (d *Dispatcher) EnqueueMatchStatus(match int, status string) {
	d.queue.push(MatchStatus{Match: match, Status: status})
}

// EnqueueScore queues one round score.
func (d *Dispatcher) EnqueueScore(teamNumber, round, score int) {
	d.queue.push(ScoreUpdate{Team: teamNumber, Round: round, Score: score})
}

// Stop asks the worker to exit after draining messages queued before
// it. Callers must not enqueue afterward. A worker still waiting for
// credentials exits immediately; its buffered messages are discarded.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopping)
		d.queue.push(stop{})
	})
}

// Wait blocks until the worker has exited.
func (d *Dispatcher) Wait() {
	<-d.done
	if d.pool != nil {
		d.pool.Release()
	}
}

// ForceSync builds the full event snapshot and posts it to /sync
// synchronously, outside the queue. It is not ordered relative to
// queued messages.
func (d *Dispatcher) ForceSync(match int, status string, teams []team.Team) error {
	d.mu.RLock()
	poster := d.poster
	d.mu.RUnlock()
	if poster == nil {
		return fmt.Errorf("sync is not configured")
	}

	states := make([]reflector.TeamState, 0, len(teams))
	for _, t := range teams {
		states = append(states, reflector.TeamState{
			Name:       t.Name,
			TeamNumber: t.Number,
			Pit:        t.Pit,
			Round1:     t.Scores[0],
			Round2:     t.Scores[1],
			Round3:     t.Scores[2],
		})
	}

	if err := poster.PostSync(reflector.EventSnapshot{Match: match, Status: status, Teams: states}); err != nil {
		return fmt.Errorf("force sync: %w", err)
	}

	return nil
}

func (d *Dispatcher) run() {
	select {
	case <-d.ready:
	case <-d.stopping:
		close(d.done)
		return
	}

	d.mu.RLock()
	poster := d.poster
	d.mu.RUnlock()

	for {
		msg := d.queue.pop()
		if _, isStop := msg.(stop); isStop {
			close(d.done)
			return
		}

		// A panic while delivering one message must not kill the worker;
		// the message is lost like any other failed delivery.
		recovered := panics.Try(func() {
			d.deliver(poster, msg)
		})
		if recovered != nil {
			d.logger.Error("sync delivery panicked", "panic", recovered.Value)
		}
	}
}

// deliver maps a message to its reflector endpoint. Failures are
// swallowed by contract: the remote mirror goes stale until the next
// message or a force sync, local state is never affected.
func (d *Dispatcher) deliver(poster Poster, msg Message) {
	var err error
	switch m := msg.(type) {
	case TeamsSnapshot:
		err = poster.PostTeams(m.Teams)
	case MatchStatus:
		err = poster.PostMatch(reflector.MatchStatus{Match: m.Match, Status: m.Status})
	case ScoreUpdate:
		err = poster.PostScore(reflector.ScoreUpdate{Team: m.Team, Match: m.Round, Score: m.Score})
	default:
		d.logger.Warn("sync message of unknown kind dropped", "message", fmt.Sprintf("%T", msg))
		return
	}

	if err != nil {
		d.logger.Warn("sync delivery failed", "error", err)
	}
}

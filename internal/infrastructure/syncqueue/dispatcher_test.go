package syncqueue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/infrastructure/reflector"
	"github.com/ibsc/brickscore/internal/platform/logging"
)

// recordingPoster captures deliveries in arrival order.
type recordingPoster struct {
	mu      sync.Mutex
	calls   []string
	failAll bool
}

func (p *recordingPoster) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	if p.failAll {
		return fmt.Errorf("reflector unreachable")
	}
	return nil
}

func (p *recordingPoster) PostTeams(teams []reflector.TeamEntry) error {
	return p.record(fmt.Sprintf("teams:%d", len(teams)))
}

func (p *recordingPoster) PostMatch(status reflector.MatchStatus) error {
	return p.record(fmt.Sprintf("match:%d:%s", status.Match, status.Status))
}

func (p *recordingPoster) PostScore(update reflector.ScoreUpdate) error {
	return p.record(fmt.Sprintf("score:%d:%d:%d", update.Team, update.Match, update.Score))
}

func (p *recordingPoster) PostSync(snapshot reflector.EventSnapshot) error {
	return p.record(fmt.Sprintf("sync:%d:%s:%d", snapshot.Match, snapshot.Status, len(snapshot.Teams)))
}

func (p *recordingPoster) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newTestDispatcher(t *testing.T, poster Poster) *Dispatcher {
	t.Helper()
	d := New(logging.NewNop(), func(Credentials) Poster { return poster })
	require.NoError(t, d.Start())
	return d
}

func TestDispatcherBuffersUntilConfigured(t *testing.T) {
	poster := &recordingPoster{}
	d := newTestDispatcher(t, poster)

	d.EnqueueTeams([]team.Team{team.New(7, "Brick Layers", 0)})
	d.EnqueueMatchStatus(3, "running")
	d.EnqueueScore(7, 1, 120)

	// Nothing moves before credentials arrive.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, poster.recorded())

	d.Configure(Credentials{SyncURL: "https://reflector.test", EventCode: "regional", APIKey: "secret"})
	d.Stop()
	d.Wait()

	assert.Equal(t, []string{"teams:1", "match:3:running", "score:7:1:120"}, poster.recorded())
}

func TestDispatcherStopBeforeConfigureExits(t *testing.T) {
	poster := &recordingPoster{}
	d := newTestDispatcher(t, poster)

	d.EnqueueMatchStatus(1, "running")
	d.Stop()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not exit without credentials")
	}
	assert.Empty(t, poster.recorded())
}

func TestDispatcherDropsFailedDeliveries(t *testing.T) {
	poster := &recordingPoster{failAll: true}
	d := newTestDispatcher(t, poster)
	d.Configure(Credentials{SyncURL: "https://reflector.test", EventCode: "regional", APIKey: "secret"})

	d.EnqueueScore(7, 1, 120)
	d.EnqueueScore(7, 2, 200)
	d.Stop()
	d.Wait()

	// Failures never stall the queue; both deliveries were attempted.
	assert.Equal(t, []string{"score:7:1:120", "score:7:2:200"}, poster.recorded())
}

func TestForceSyncRequiresConfiguration(t *testing.T) {
	d := New(logging.NewNop(), func(Credentials) Poster { return &recordingPoster{} })

	err := d.ForceSync(1, "running", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync is not configured")
}

func TestForceSyncPostsFullSnapshot(t *testing.T) {
	poster := &recordingPoster{}
	d := New(logging.NewNop(), func(Credentials) Poster { return poster })
	d.Configure(Credentials{SyncURL: "https://reflector.test", EventCode: "regional", APIKey: "secret"})

	roster := []team.Team{team.New(7, "Brick Layers", 0), team.New(12, "Stud Finders", 0)}
	require.NoError(t, d.ForceSync(4, "complete", roster))

	assert.Equal(t, []string{"sync:4:complete:2"}, poster.recorded())
}

func TestConfigurePassesCredentialsToPosterBuilder(t *testing.T) {
	var got Credentials
	d := New(logging.NewNop(), func(c Credentials) Poster {
		got = c
		return &recordingPoster{}
	})

	d.Configure(Credentials{
		SyncURL:   "https://reflector.test",
		EventCode: "regional",
		APIKey:    "secret",
		Timeout:   12 * time.Second,
	})

	assert.Equal(t, "https://reflector.test", got.SyncURL)
	assert.Equal(t, "regional", got.EventCode)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, 12*time.Second, got.Timeout)
}

func TestConfigureIsIdempotent(t *testing.T) {
	built := 0
	d := New(logging.NewNop(), func(Credentials) Poster {
		built++
		return &recordingPoster{}
	})

	d.Configure(Credentials{SyncURL: "a", EventCode: "b", APIKey: "c"})
	d.Configure(Credentials{SyncURL: "x", EventCode: "y", APIKey: "z"})

	assert.Equal(t, 1, built)
}

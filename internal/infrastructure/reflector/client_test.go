package reflector

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibsc/brickscore/internal/platform/logging"
)

type capturedRequest struct {
	path   string
	apiKey string
	body   []byte
}

func newCapturingServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("apikey")
		captured.body = body
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newTestReflector(url string) *Client {
	return NewClient(Config{
		SyncURL:   url,
		EventCode: "regional",
		APIKey:    "secret",
		Logger:    logging.NewNop(),
	})
}

func TestPostTeamsHitsEventScopedPath(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK)
	client := newTestReflector(server.URL)

	err := client.PostTeams([]TeamEntry{{Name: "Brick Layers", Number: 7, Pit: 3}})
	require.NoError(t, err)

	assert.Equal(t, "/regional/teams", captured.path)
	assert.Equal(t, "secret", captured.apiKey)

	var teams []TeamEntry
	require.NoError(t, sonic.Unmarshal(captured.body, &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, 7, teams[0].Number)
}

func TestPostMatchBody(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK)
	client := newTestReflector(server.URL)

	require.NoError(t, client.PostMatch(MatchStatus{Match: 4, Status: StatusRunning}))

	assert.Equal(t, "/regional/match", captured.path)
	assert.JSONEq(t, `{"match":4,"status":"running"}`, string(captured.body))
}

func TestPostScoreBody(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK)
	client := newTestReflector(server.URL)

	require.NoError(t, client.PostScore(ScoreUpdate{Team: 7, Match: 2, Score: 120}))

	assert.Equal(t, "/regional/scores", captured.path)
	assert.JSONEq(t, `{"team":7,"match":2,"score":120}`, string(captured.body))
}

func TestPostSyncSendsFullSnapshot(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK)
	client := newTestReflector(server.URL)

	err := client.PostSync(EventSnapshot{
		Match:  4,
		Status: StatusQueueing,
		Teams: []TeamState{
			{Name: "Brick Layers", TeamNumber: 7, Pit: 3, Round1: 120, Round2: -1, Round3: -1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/regional/sync", captured.path)

	var snapshot EventSnapshot
	require.NoError(t, sonic.Unmarshal(captured.body, &snapshot))
	require.Len(t, snapshot.Teams, 1)
	assert.Equal(t, -1, snapshot.Teams[0].Round2)
}

func TestPostRejectsNon2xx(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusForbidden)
	client := newTestReflector(server.URL)

	err := client.PostMatch(MatchStatus{Match: 1, Status: StatusRunning})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClientHonorsConfiguredTimeout(t *testing.T) {
	client := NewClient(Config{
		SyncURL:   "https://reflector.test",
		EventCode: "regional",
		Timeout:   12 * time.Second,
		Logger:    logging.NewNop(),
	})
	assert.Equal(t, 12*time.Second, client.timeout)

	// Zero falls back to the client default.
	client = NewClient(Config{
		SyncURL:   "https://reflector.test",
		EventCode: "regional",
		Logger:    logging.NewNop(),
	})
	assert.Equal(t, 5*time.Second, client.timeout)
}

func TestBaseURLNormalizesTrailingSlash(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK)
	client := NewClient(Config{
		SyncURL:   server.URL + "/",
		EventCode: "regional",
		APIKey:    "secret",
		Logger:    logging.NewNop(),
	})

	require.NoError(t, client.PostMatch(MatchStatus{Match: 1, Status: StatusQueueing}))
	assert.Equal(t, "/regional/match", captured.path)
}

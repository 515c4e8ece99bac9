package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/ibsc/brickscore/internal/domain/matchlog"
	"github.com/ibsc/brickscore/internal/domain/score"
	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/platform/logging"
	"github.com/ibsc/brickscore/internal/usecase"
)

// memoryRepo is an in-memory team.Repository for handler tests.
type memoryRepo struct {
	teams  map[int]team.Record
	scores map[string]score.Entry
	sheets map[string]string
	order  []int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		teams:  map[int]team.Record{},
		scores: map[string]score.Entry{},
		sheets: map[string]string{},
	}
}

func (r *memoryRepo) UpsertTeam(_ context.Context, number int, name string, pit int) error {
	if _, seen := r.teams[number]; !seen {
		r.order = append(r.order, number)
	}
	r.teams[number] = team.Record{Number: number, Name: name, Pit: pit}
	return nil
}

func (r *memoryRepo) UpsertScore(_ context.Context, entry score.Entry) error {
	r.scores[entry.Slug()] = entry
	return nil
}

func (r *memoryRepo) UpsertScoresheet(_ context.Context, number, round int, scoresheet string) error {
	r.sheets[fmt.Sprintf("%d-%d", number, round)] = scoresheet
	return nil
}

func (r *memoryRepo) DeleteTeam(_ context.Context, number int) error {
	delete(r.teams, number)
	return nil
}

func (r *memoryRepo) LoadTeams(context.Context) ([]team.Record, error) {
	out := make([]team.Record, 0, len(r.teams))
	for _, n := range r.order {
		if rec, ok := r.teams[n]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryRepo) LoadScores(context.Context) ([]score.Entry, error) {
	return nil, nil
}

type noopSyncer struct{ forceErr error }

func (noopSyncer) EnqueueTeams([]team.Team)       {}
func (noopSyncer) EnqueueMatchStatus(int, string) {}
func (noopSyncer) EnqueueScore(int, int, int)     {}
func (s noopSyncer) ForceSync(int, string, []team.Team) error {
	return s.forceErr
}

type noopMatchLog struct{}

func (noopMatchLog) WriteLogEntry(context.Context, string, string) error { return nil }

type emptyStartSource struct{}

func (emptyStartSource) MatchStartTimes(context.Context) ([]matchlog.MatchStart, error) {
	return nil, nil
}

type fixedScorer struct {
	score int
	err   error
}

func (s fixedScorer) GetScore(context.Context, map[string]any) (int, error) {
	return s.score, s.err
}

func newTestRouter(t *testing.T, scorer ScoresheetScorer) http.Handler {
	t.Helper()

	events := usecase.NewEventService(newMemoryRepo(), noopMatchLog{}, noopSyncer{}, logging.NewNop())
	reports := usecase.NewCycleReportService(emptyStartSource{})
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(events, reports, scorer, logger)
	return NewRouter(handler, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return envelope.Data
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAddTeamAndList(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":7,"name":"Brick Layers","pit":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if got, _ := data["rank"].(string); got != "NP" {
		t.Fatalf("expected NP rank for unplayed team, got %v", data["rank"])
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/teams", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Brick Layers") {
		t.Fatalf("team missing from list: %s", rec.Body.String())
	}
}

func TestAddTeamValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing number", body: `{"name":"Brick Layers"}`},
		{name: "missing name", body: `{"number":7}`},
		{name: "malformed json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/v1/teams", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSetScoreAndRankings(t *testing.T) {
	router := newTestRouter(t, nil)

	doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":7,"name":"Brick Layers"}`)
	doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":12,"name":"Stud Finders"}`)

	rec := doJSON(t, router, http.MethodPut, "/v1/teams/12/scores/1", `{"score":250}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/rankings", "")
	body := rec.Body.String()
	if strings.Index(body, `"number":12`) > strings.Index(body, `"number":7`) {
		t.Fatalf("scored team should rank first: %s", body)
	}
}

func TestSetScoreRejectsBadRound(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":7,"name":"Brick Layers"}`)

	rec := doJSON(t, router, http.MethodPut, "/v1/teams/7/scores/4", `{"score":100}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/v1/teams/7/scores/one", `{"score":100}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric round, got %d", rec.Code)
	}
}

func TestScoreUnknownTeamIs404(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/v1/teams/99/scores/1", `{"score":100}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitScoresheetDisabledReturns503(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":7,"name":"Brick Layers"}`)

	rec := doJSON(t, router, http.MethodPost, "/v1/teams/7/scoresheets/1", `{"tasks":{"m01":true}}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when scorer disabled, got %d", rec.Code)
	}
}

func TestSubmitScoresheetScoresAndRecords(t *testing.T) {
	router := newTestRouter(t, fixedScorer{score: 185})
	doJSON(t, router, http.MethodPost, "/v1/teams", `{"number":7,"name":"Brick Layers"}`)

	rec := doJSON(t, router, http.MethodPost, "/v1/teams/7/scoresheets/2", `{"tasks":{"m01":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if got, _ := data["score"].(float64); int(got) != 185 {
		t.Fatalf("expected score 185, got %v", data["score"])
	}
}

func TestMatchLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/matches/3/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/matches/complete", "")
	data := decodeData(t, rec)
	if got, _ := data["match"].(float64); int(got) != 4 {
		t.Fatalf("expected next match 4, got %v", data["match"])
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/event", "")
	data = decodeData(t, rec)
	if got, _ := data["matchNumber"].(float64); int(got) != 4 {
		t.Fatalf("event status should report match 4, got %v", data["matchNumber"])
	}
}

func TestForceSyncUnconfiguredIs503(t *testing.T) {
	events := usecase.NewEventService(newMemoryRepo(), noopMatchLog{},
		noopSyncer{forceErr: fmt.Errorf("sync is not configured")}, logging.NewNop())
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(events, usecase.NewCycleReportService(emptyStartSource{}), nil, logger)
	router := NewRouter(handler, logger)

	rec := doJSON(t, router, http.MethodPost, "/v1/sync", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestImportThenExportCSV(t *testing.T) {
	router := newTestRouter(t, nil)

	csv := "Team Name,Team Number,Pit #\nBrick Layers,7,1\nStud Finders,12,2\n"
	req := httptest.NewRequest(http.MethodPost, "/v1/teams/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/teams/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Stud Finders") {
		t.Fatalf("export missing imported team: %s", rec.Body.String())
	}
}

func TestCycleReportText(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/reports/cycle-times.txt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cycle Time Report") {
		t.Fatalf("unexpected report body: %s", rec.Body.String())
	}
}

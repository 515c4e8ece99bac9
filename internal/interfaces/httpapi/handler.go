package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ibsc/brickscore/internal/domain/ranking"
	"github.com/ibsc/brickscore/internal/domain/team"
	"github.com/ibsc/brickscore/internal/usecase"
)

// ScoresheetScorer turns a completed scoresheet into a match score;
// satisfied by *eventhub.Client. Nil when the scoring service failed
// its startup probe, which disables the scoresheet route for the
// session.
type ScoresheetScorer interface {
	GetScore(ctx context.Context, tasks map[string]any) (int, error)
}

type Handler struct {
	events    *usecase.EventService
	reports   *usecase.CycleReportService
	scorer    ScoresheetScorer
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(
	events *usecase.EventService,
	reports *usecase.CycleReportService,
	scorer ScoresheetScorer,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		events:    events,
		reports:   reports,
		scorer:    scorer,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type eventStatusDTO struct {
	MatchNumber   int  `json:"matchNumber"`
	Teams         int  `json:"teams"`
	ScoresEntered int  `json:"scoresEntered"`
	Scoresheets   bool `json:"scoresheetsEnabled"`
}

func (h *Handler) GetEventStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEventStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, eventStatusDTO{
		MatchNumber:   h.events.MatchNumber(),
		Teams:         len(h.events.TeamsByNumber()),
		ScoresEntered: h.events.ScoresEntered(),
		Scoresheets:   h.scorer != nil,
	})
}

type teamDTO struct {
	Number        int              `json:"number"`
	Name          string           `json:"name"`
	Pit           int              `json:"pit"`
	Scores        [team.Rounds]int `json:"scores"`
	HighScore     int              `json:"highScore"`
	HighScoreFrom int              `json:"highScoreRound"`
	Rank          string           `json:"rank"`
}

func teamToDTO(t team.Team) teamDTO {
	highScoreRound := 0
	if t.Played() {
		highScoreRound = t.HighScoreIndex + 1
	}
	return teamDTO{
		Number:        t.Number,
		Name:          t.Name,
		Pit:           t.Pit,
		Scores:        t.Scores,
		HighScore:     t.HighScore,
		HighScoreFrom: highScoreRound,
		Rank:          ranking.Display(t.Rank),
	}
}

func teamsToDTO(teams []team.Team) []teamDTO {
	out := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamToDTO(t))
	}
	return out
}

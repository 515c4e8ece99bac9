package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/ibsc/brickscore/internal/usecase"
)

type scoresheetRequest struct {
	// Tasks holds per-mission answers; the scoring service owns the
	// rules, so the payload stays opaque here.
	Tasks map[string]any `json:"tasks" validate:"required"`
}

type scoresheetResponse struct {
	Team  teamDTO `json:"team"`
	Score int     `json:"score"`
}

// SubmitScoresheet scores a completed sheet through the hosted scoring
// service, then persists both the sheet and the resulting score.
func (h *Handler) SubmitScoresheet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitScoresheet")
	defer span.End()

	if h.scorer == nil {
		writeError(ctx, w, fmt.Errorf("%w: scoresheet scoring is disabled for this session", usecase.ErrDependencyUnavailable))
		return
	}

	number, err := pathInt(r, "number")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	round, err := pathInt(r, "round")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var payload scoresheetRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	points, err := h.scorer.GetScore(ctx, payload.Tasks)
	if err != nil {
		h.logger.ErrorContext(ctx, "scoresheet scoring failed", "team", number, "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	sheet, err := sonic.MarshalString(payload.Tasks)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: scoresheet is not serializable", usecase.ErrInvalidInput))
		return
	}

	updated, err := h.events.RecordScoresheet(ctx, number, round, sheet, points)
	if err != nil {
		h.logger.ErrorContext(ctx, "record scoresheet failed", "team", number, "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoresheetResponse{Team: teamToDTO(updated), Score: points})
}

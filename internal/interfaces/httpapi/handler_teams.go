package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/ibsc/brickscore/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, teamsToDTO(h.events.TeamsByNumber()))
}

func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Rankings")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, teamsToDTO(h.events.Rankings()))
}

type addTeamRequest struct {
	Number int    `json:"number" validate:"required,gt=0"`
	Name   string `json:"name" validate:"required"`
	Pit    int    `json:"pit" validate:"gte=0"`
}

func (h *Handler) AddTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddTeam")
	defer span.End()

	var payload addTeamRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	added, err := h.events.AddTeam(ctx, payload.Number, strings.TrimSpace(payload.Name), payload.Pit)
	if err != nil {
		h.logger.WarnContext(ctx, "add team failed", "team", payload.Number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(added))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteTeam")
	defer span.End()

	number, err := pathInt(r, "number")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.events.DeleteTeam(ctx, number); err != nil {
		h.logger.WarnContext(ctx, "delete team failed", "team", number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"deleted": number})
}

type renameTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameTeam")
	defer span.End()

	number, err := pathInt(r, "number")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var payload renameTeamRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	renamed, err := h.events.RenameTeam(ctx, number, strings.TrimSpace(payload.Name))
	if err != nil {
		h.logger.WarnContext(ctx, "rename team failed", "team", number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(renamed))
}

type assignPitRequest struct {
	Pit int `json:"pit" validate:"gte=0"`
}

func (h *Handler) AssignPit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignPit")
	defer span.End()

	number, err := pathInt(r, "number")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var payload assignPitRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	updated, err := h.events.AssignPit(ctx, number, payload.Pit)
	if err != nil {
		h.logger.WarnContext(ctx, "assign pit failed", "team", number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(updated))
}

type setScoreRequest struct {
	Score    int    `json:"score"`
	Comments string `json:"comments"`
}

func (h *Handler) SetScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetScore")
	defer span.End()

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

	var payload setScoreRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body", usecase.ErrInvalidInput))
		return
	}

	updated, err := h.events.SetScore(ctx, number, round, payload.Score, payload.Comments)
	if err != nil {
		h.logger.WarnContext(ctx, "set score failed", "team", number, "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(updated))
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", usecase.ErrInvalidInput, name, raw)
	}
	return value, nil
}

package httpapi

import (
	"net/http"
)

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartMatch")
	defer span.End()

	match, err := pathInt(r, "match")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.events.StartMatch(ctx, match); err != nil {
		h.logger.ErrorContext(ctx, "start match failed", "match", match, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"match": match})
}

func (h *Handler) AbortMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AbortMatch")
	defer span.End()

	match, err := pathInt(r, "match")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.events.AbortMatch(ctx, match); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"match": match})
}

func (h *Handler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteMatch")
	defer span.End()

	next := h.events.CompleteMatch(ctx)
	writeSuccess(ctx, w, http.StatusOK, map[string]int{"match": next})
}

func (h *Handler) ForceSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceSync")
	defer span.End()

	if err := h.events.ForceSync(ctx); err != nil {
		h.logger.WarnContext(ctx, "force sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "synced"})
}

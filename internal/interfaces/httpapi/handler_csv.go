package httpapi

import (
	"fmt"
	"net/http"

	"github.com/ibsc/brickscore/internal/interfaces/csvio"
	"github.com/ibsc/brickscore/internal/usecase"
)

// ImportCSV loads a roster file. The body is the raw CSV; whether
// scores come along is decided by the file's columns.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportCSV")
	defer span.End()

	imports, err := csvio.Import(r.Body)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	count, err := h.events.ImportTeams(ctx, imports)
	if err != nil {
		h.logger.WarnContext(ctx, "csv import failed", "rows", len(imports), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "csv import complete", "teams", count)
	writeSuccess(ctx, w, http.StatusCreated, map[string]int{"imported": count})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportCSV")
	defer span.End()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="teams.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := csvio.Export(w, h.events.TeamsByNumber()); err != nil {
		h.logger.ErrorContext(ctx, "csv export failed", "error", err)
	}
}

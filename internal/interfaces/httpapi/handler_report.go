package httpapi

import (
	"net/http"
	"time"
)

type cycleRowDTO struct {
	Match        int    `json:"match"`
	StartedAt    string `json:"startedAt"`
	CycleSeconds int    `json:"cycleSeconds"`
}

func (h *Handler) CycleReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CycleReport")
	defer span.End()

	rows, err := h.reports.Rows(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "cycle report failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]cycleRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, cycleRowDTO{
			Match:        row.MatchNumber,
			StartedAt:    row.StartedAt.Format(time.RFC3339),
			CycleSeconds: int(row.Cycle.Seconds()),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CycleReportText(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CycleReportText")
	defer span.End()

	report, err := h.reports.Render(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "cycle report failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

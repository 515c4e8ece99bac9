package httpapi

import (
	"log/slog"
	"net/http"
)

func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	registerRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}

func registerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/event", handler.GetEventStatus)

	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("POST /v1/teams", handler.AddTeam)
	mux.HandleFunc("DELETE /v1/teams/{number}", handler.DeleteTeam)
	mux.HandleFunc("PUT /v1/teams/{number}/name", handler.RenameTeam)
	mux.HandleFunc("PUT /v1/teams/{number}/pit", handler.AssignPit)
	mux.HandleFunc("PUT /v1/teams/{number}/scores/{round}", handler.SetScore)
	mux.HandleFunc("POST /v1/teams/{number}/scoresheets/{round}", handler.SubmitScoresheet)

	mux.HandleFunc("GET /v1/rankings", handler.Rankings)

	mux.HandleFunc("POST /v1/matches/{match}/start", handler.StartMatch)
	mux.HandleFunc("POST /v1/matches/{match}/abort", handler.AbortMatch)
	mux.HandleFunc("POST /v1/matches/complete", handler.CompleteMatch)
	mux.HandleFunc("POST /v1/sync", handler.ForceSync)

	mux.HandleFunc("GET /v1/reports/cycle-times", handler.CycleReport)
	mux.HandleFunc("GET /v1/reports/cycle-times.txt", handler.CycleReportText)

	mux.HandleFunc("POST /v1/teams/import", handler.ImportCSV)
	mux.HandleFunc("GET /v1/teams/export", handler.ExportCSV)
}

func recoverPanic(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

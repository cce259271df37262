package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/report"
)

// ReportsHandler serves the stored run reports and their alerts.
type ReportsHandler struct {
	store  *report.Store
	logger *slog.Logger
}

// NewReportsHandler creates the handler over the report store.
func NewReportsHandler(store *report.Store, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "reports")),
	}
}

// Routes returns the report subrouter.
func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/latest", h.Latest)
	r.Get("/{runID}", h.Get)
	return r
}

// List handles GET /api/reports.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.List()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, reports)
}

// Latest handles GET /api/reports/latest.
func (h *ReportsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Latest()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, latest)
}

// Get handles GET /api/reports/{runID}. An unknown run ID is a
// NOT_FOUND, unlike the collection endpoints where an empty store is
// NO_REPORTS.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rep, err := h.store.Get(runID)
	if err != nil {
		if errors.Is(err, report.ErrNoReports) {
			render.Render(w, r, pipeerrors.ErrNotFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, rep)
}

// Alerts handles GET /api/alerts: the alerts of the most recent run.
func (h *ReportsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Latest()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"run_id": latest.RunID,
		"alerts": latest.Alerts,
	})
}

func (h *ReportsHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *pipeerrors.APIError
	switch {
	case errors.Is(err, report.ErrNoReports):
		apiErr = pipeerrors.ErrNoReports
	default:
		h.logger.Error("Report request failed", slog.Any("error", err))
		apiErr = pipeerrors.APIErrorFrom(err)
	}
	render.Render(w, r, apiErr)
}

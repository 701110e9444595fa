package api

import (
	"context"
	"net/http"

	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/app"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// Dashboard is the client side driven by the view routes.
type Dashboard interface {
	Load(ctx context.Context) app.LoadResult
	Submit(ctx context.Context, rec model.PerformanceRecord) app.SubmitResult
}

// ViewSource exposes what the dashboard currently shows.
type ViewSource interface {
	View() render.View
}

// DashboardHandler serves the dashboard state as JSON.
type DashboardHandler struct {
	dash Dashboard
	view ViewSource
	log  logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dash Dashboard, view ViewSource, log logger.Logger) *DashboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardHandler{dash: dash, view: view, log: log}
}

type reloadResponse struct {
	Cycle uint64      `json:"cycle"`
	ID    string      `json:"cycle_id"`
	State string      `json:"state"`
	Stale bool        `json:"stale"`
	View  render.View `json:"view"`
}

type submitResponse struct {
	Accepted bool        `json:"accepted"`
	Message  string      `json:"message"`
	View     render.View `json:"view"`
}

// Register attaches /view, /reload and /submit to mux.
func (h *DashboardHandler) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/view", MetricsMiddleware(h.HandleView, "view"))
	mux.HandleFunc("/reload", MetricsMiddleware(h.HandleReload, "reload"))
	mux.HandleFunc("/submit", MetricsMiddleware(h.HandleSubmit, "submit"))
}

// HandleView handles GET /view.
func (h *DashboardHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.view.View())
}

// HandleReload handles POST /reload. Load failures are part of the view,
// so the status is always 200.
func (h *DashboardHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	res := h.dash.Load(r.Context())
	writeJSON(w, http.StatusOK, reloadResponse{
		Cycle: res.Cycle,
		ID:    res.ID,
		State: res.State.String(),
		Stale: res.Stale,
		View:  h.view.View(),
	})
}

// HandleSubmit handles POST /submit with a record body.
func (h *DashboardHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_submit"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	rec, missing, err := decodeRecord(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(r.Context(), h.log, w, http.StatusBadRequest, "Invalid JSON body", WrapKind(op, ErrBadRequest, err))
		return
	}
	if missing != "" {
		writeError(r.Context(), h.log, w, http.StatusBadRequest, "Missing field "+missing, NewKind(op, ErrBadRequest))
		return
	}
	res := h.dash.Submit(r.Context(), rec)
	writeJSON(w, http.StatusOK, submitResponse{Accepted: res.Accepted, Message: res.Message, View: h.view.View()})
}

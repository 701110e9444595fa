package api

import (
	"net/http"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// AlertsHandler serves GET /alerts.
type AlertsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(deps Dependencies, log logger.Logger) *AlertsHandler {
	return &AlertsHandler{deps: deps, log: log}
}

// HandleGetAlerts handles GET /alerts requests.
func (h *AlertsHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_alerts"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	alerts, err := h.deps.Alerts(r.Context())
	if err != nil {
		writeError(r.Context(), h.log, w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), Wrap(op, err))
		return
	}
	if alerts == nil {
		alerts = []model.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

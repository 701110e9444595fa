// Package api serves the performance store and dashboard HTTP routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// Dependencies required by the store handlers.
type Dependencies interface {
	AddRecord(ctx context.Context, rec model.PerformanceRecord) ([]string, error)
	Records(ctx context.Context) ([]model.PerformanceRecord, error)
	Alerts(ctx context.Context) ([]model.AlertRecord, error)
}

// Server wires the store routes.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	playerDataHandler *PlayerDataHandler
	alertsHandler     *AlertsHandler
}

// NewServer creates a new API server with all handlers. statsProvider may
// be nil, in which case /stats is not registered.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		healthHandler:     NewHealthHandler(),
		playerDataHandler: NewPlayerDataHandler(deps, log),
		alertsHandler:     NewAlertsHandler(deps, log),
	}
	if statsProvider != nil {
		s.statsHandler = NewStatsHandler(statsProvider)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/player-data", MetricsMiddleware(s.playerDataHandler.HandlePlayerData, "player_data"))
	mux.HandleFunc("/alerts", MetricsMiddleware(s.alertsHandler.HandleGetAlerts, "alerts"))
	if s.statsHandler != nil {
		mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	}
}

// errorResponse is the store's error shape.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends msg to the client and logs err with its op and kind.
func writeError(ctx context.Context, log logger.Logger, w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		log.Warn(ctx, "request failed", logger.Int("status", status), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
}

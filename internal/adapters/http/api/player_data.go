package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

const (
	addedMessage = "Data added in-memory"
	maxBodyBytes = 1 << 20
)

// requiredFields are checked in this order; the first missing one is
// reported.
var requiredFields = []string{"player_name", "match_date", "performance_type", "performance_value"}

var errMalformedBody = errors.New("malformed JSON")

// PlayerDataHandler serves GET and POST /player-data.
type PlayerDataHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPlayerDataHandler creates a new player data handler.
func NewPlayerDataHandler(deps Dependencies, log logger.Logger) *PlayerDataHandler {
	return &PlayerDataHandler{deps: deps, log: log}
}

type addResponse struct {
	Message string   `json:"message"`
	Alerts  []string `json:"alerts"`
}

// HandlePlayerData dispatches on method.
func (h *PlayerDataHandler) HandlePlayerData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleAdd(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (h *PlayerDataHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_player_data"
	recs, err := h.deps.Records(r.Context())
	if err != nil {
		writeError(r.Context(), h.log, w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), Wrap(op, err))
		return
	}
	if recs == nil {
		recs = []model.PerformanceRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleAdd accepts any JSON body regardless of content type.
func (h *PlayerDataHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_player_data"
	ctx := r.Context()

	rec, missing, err := decodeRecord(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(ctx, h.log, w, http.StatusBadRequest, "Invalid JSON body", WrapKind(op, ErrBadRequest, err))
		return
	}
	if missing != "" {
		writeError(ctx, h.log, w, http.StatusBadRequest, "Missing field "+missing, NewKind(op, ErrBadRequest))
		return
	}

	alerts, err := h.deps.AddRecord(ctx, rec)
	if err != nil {
		writeError(ctx, h.log, w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), Wrap(op, err))
		return
	}
	if alerts == nil {
		alerts = []string{}
	}
	writeJSON(w, http.StatusCreated, addResponse{Message: addedMessage, Alerts: alerts})
}

// decodeRecord reads a submission. It returns the name of the first
// missing field instead of a record when one is absent. Values that are
// not strings are kept in their textual form.
func decodeRecord(body io.Reader) (model.PerformanceRecord, string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return model.PerformanceRecord{}, "", fmt.Errorf("read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return model.PerformanceRecord{}, "", errMalformedBody
	}
	// Valid JSON that is not an object carries none of the fields.
	if raw[0] != '{' {
		return model.PerformanceRecord{}, requiredFields[0], nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.PerformanceRecord{}, "", err
	}
	for _, k := range requiredFields {
		if _, ok := fields[k]; !ok {
			return model.PerformanceRecord{}, k, nil
		}
	}
	return model.PerformanceRecord{
		PlayerName:       stringify(fields["player_name"]),
		MatchDate:        stringify(fields["match_date"]),
		PerformanceType:  stringify(fields["performance_type"]),
		PerformanceValue: stringify(fields["performance_value"]),
	}, "", nil
}

// stringify renders a JSON value as stored text: strings as-is, numbers
// as written, true/false/null as True/False/None.
func stringify(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	switch string(v) {
	case "true":
		return "True"
	case "false":
		return "False"
	case "null":
		return "None"
	}
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v); err == nil {
		return compact.String()
	}
	return string(v)
}

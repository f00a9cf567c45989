package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/lastreport"
	"github.com/mselser95/betview/internal/report"
	"github.com/mselser95/betview/internal/scenario"
	"github.com/mselser95/betview/internal/storage"
	"github.com/mselser95/betview/internal/view"
	"go.uber.org/zap"
)

const (
	oddsLookupSuffix   = "ODDS"
	defaultHistorySize = 20
	maxHistorySize     = 500
	maxFormBytes       = 64 << 10
)

// ScenarioHandler serves scenario invocations and the slots they produce.
type ScenarioHandler struct {
	orch    *scenario.Orchestrator
	board   *view.Board
	storage storage.Storage
	logger  *zap.Logger
}

// NewScenarioHandler creates a scenario handler. storage may be nil, in which
// case the history endpoint answers 404.
func NewScenarioHandler(orch *scenario.Orchestrator, board *view.Board, st storage.Storage, logger *zap.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		orch:    orch,
		board:   board,
		storage: st,
		logger:  logger,
	}
}

// ScenarioInfo describes one scenario.
type ScenarioInfo struct {
	Name   scenario.Name `json:"name"`
	Suffix string        `json:"suffix"`
}

// RunResponse is the result of a scenario invocation.
type RunResponse struct {
	Outcome *scenario.Outcome    `json:"outcome"`
	Slots   map[string]view.Slot `json:"slots"`
}

// LastReportResponse is the combination odds of the most recent report.
type LastReportResponse struct {
	Scenario string       `json:"scenario"`
	Match    string       `json:"match"`
	StoredAt time.Time    `json:"stored_at"`
	Odds     report.Table `json:"odds"`
}

// MatchesResponse lists the matches known for a sport.
type MatchesResponse struct {
	Sport   string   `json:"sport"`
	Matches []string `json:"matches"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Outcome *scenario.Outcome `json:"outcome,omitempty"`
}

// HandleList handles GET /api/scenarios.
func (h *ScenarioHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	all := scenario.All()
	out := make([]ScenarioInfo, 0, len(all))
	for _, sc := range all {
		out = append(out, ScenarioInfo{Name: sc.Name, Suffix: sc.Suffix})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HandleRun handles POST /api/scenarios/{scenario}. The body is the raw form
// as a JSON object.
func (h *ScenarioHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	name := scenario.Name(chi.URLParam(r, "scenario"))
	sc, ok := scenario.Lookup(name)
	if !ok {
		h.writeError(w, "unknown scenario: "+string(name), http.StatusNotFound)
		return
	}

	var form scenario.Form
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&form)
	if err != nil {
		h.writeError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Debug("scenario-request-received",
		zap.String("scenario", string(name)),
		zap.Int("fields", len(form)))

	out, err := h.orch.Run(r.Context(), name, form)
	if err != nil {
		h.writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Outcome: out})
		return
	}

	h.writeJSON(w, http.StatusOK, RunResponse{
		Outcome: out,
		Slots:   h.board.Snapshot(sc.Suffix),
	})
}

// HandleSlots handles GET /api/scenarios/{scenario}/slots.
func (h *ScenarioHandler) HandleSlots(w http.ResponseWriter, r *http.Request) {
	name := scenario.Name(chi.URLParam(r, "scenario"))
	sc, ok := scenario.Lookup(name)
	if !ok {
		h.writeError(w, "unknown scenario: "+string(name), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, h.board.Snapshot(sc.Suffix))
}

// HandleLastReport handles GET /api/last-report.
func (h *ScenarioHandler) HandleLastReport(w http.ResponseWriter, _ *http.Request) {
	last := h.orch.LastReport()

	entry, ok := last.Get()
	if !ok {
		h.writeError(w, lastreport.ErrEmpty.Error(), http.StatusNotFound)
		return
	}

	odds, err := last.Odds()
	if err != nil {
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, LastReportResponse{
		Scenario: entry.Scenario,
		Match:    entry.Report.Match.Name,
		StoredAt: entry.StoredAt,
		Odds:     odds,
	})
}

// HandleOdds handles GET /api/odds?sport=<sport>&match=<match>.
func (h *ScenarioHandler) HandleOdds(w http.ResponseWriter, r *http.Request) {
	form, ok := h.oddsForm(w, r)
	if !ok {
		return
	}

	err := h.orch.LookupOdds(r.Context(), form)
	if err != nil {
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, h.board.Snapshot(oddsLookupSuffix))
}

// HandleDeleteOdds handles DELETE /api/odds?sport=<sport>&match=<match>.
func (h *ScenarioHandler) HandleDeleteOdds(w http.ResponseWriter, r *http.Request) {
	form, ok := h.oddsForm(w, r)
	if !ok {
		return
	}

	matches, err := h.orch.DeleteOdds(r.Context(), form)
	if err != nil {
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, MatchesResponse{
		Sport:   r.URL.Query().Get("sport"),
		Matches: nonNil(matches),
	})
}

// HandleMatches handles GET /api/matches?sport=<sport>.
func (h *ScenarioHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		h.writeError(w, "missing required query parameter: sport", http.StatusBadRequest)
		return
	}

	matches, err := h.orch.Matches(r.Context(), sport)
	if err != nil {
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, MatchesResponse{Sport: sport, Matches: nonNil(matches)})
}

// HandleHistory handles GET /api/history?scenario=<suffix>&limit=<n>.
func (h *ScenarioHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, "history storage not configured", http.StatusNotFound)
		return
	}

	limit := defaultHistorySize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistorySize)
	}

	records, err := h.storage.Recent(r.Context(), r.URL.Query().Get("scenario"), limit)
	if err != nil {
		h.logger.Error("history-query-failed", zap.Error(err))
		h.writeError(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []storage.Record{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

// runLimiter throttles scenario invocations, answering 429 when a client
// exceeds its budget. A non-positive limit passes everything through.
func (h *ScenarioHandler) runLimiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return RateLimit(requests, window, func(w http.ResponseWriter) {
		h.writeError(w, "too many scenario invocations", http.StatusTooManyRequests)
	})
}

func (h *ScenarioHandler) oddsForm(w http.ResponseWriter, r *http.Request) (scenario.Form, bool) {
	sport := r.URL.Query().Get("sport")
	match := r.URL.Query().Get("match")
	if sport == "" || match == "" {
		h.writeError(w, "missing required query parameters: sport, match", http.StatusBadRequest)
		return nil, false
	}

	return scenario.Form{
		view.OddsLookupMatchesKey: []string{match},
		"SPORT_ODDS":              []string{sport},
	}, true
}

// statusFor maps invocation errors to HTTP status codes.
func statusFor(err error) int {
	var inputErr *scenario.InputError
	var unavailableErr *scenario.UnavailableSelectionError

	switch {
	case errors.Is(err, scenario.ErrUnknownScenario),
		errors.Is(err, engine.ErrUnknownMatch),
		errors.Is(err, lastreport.ErrEmpty),
		errors.Is(err, lastreport.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, scenario.ErrSelectionMissing), errors.As(err, &inputErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailableErr):
		return http.StatusConflict
	case errors.Is(err, report.ErrMalformedReport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (h *ScenarioHandler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *ScenarioHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}

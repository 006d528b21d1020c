package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/command"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// API serves the service over HTTP.
type API struct {
	svc     *Service
	version string
	mux     *http.ServeMux
}

// NewAPI creates the HTTP API for svc.
func NewAPI(svc *Service, version string) *API {
	a := &API{
		svc:     svc,
		version: version,
		mux:     http.NewServeMux(),
	}
	a.registerRoutes()
	return a
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) registerRoutes() {
	a.mux.HandleFunc("/api/v1/health", a.handleHealth)
	a.mux.HandleFunc("/api/v1/status", a.handleStatus)
	a.mux.HandleFunc("/api/v1/connect", a.handleConnect)
	a.mux.HandleFunc("/api/v1/disconnect", a.handleDisconnect)
	a.mux.HandleFunc("/api/v1/command", a.handleCommand)
	a.mux.HandleFunc("/api/v1/analyze", a.handleAnalyze)
	a.mux.HandleFunc("/api/v1/history", a.handleHistory)
}

// handleHealth returns the server health status.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	version := a.version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Status())
}

func (a *API) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := a.svc.Connect(r.Context()); err != nil {
		writeError(w, deviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Status().Device)
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.svc.Disconnect()
	writeJSON(w, http.StatusOK, a.svc.Status().Device)
}

type commandRequest struct {
	Command command.Command `json:"command"`
}

func (a *API) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.svc.Send(r.Context(), req.Command); err != nil {
		writeError(w, deviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Status().Device)
}

type analyzeRequest struct {
	Code string `json:"code"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := a.svc.Analyze(r.Context(), req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, analysis.ErrEmptySource):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := a.svc.History(r.Context(), limit)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, entries)
	case errors.Is(err, ErrHistoryDisabled):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// deviceErrorStatus maps a session error to an HTTP status.
func deviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, connection.ErrNoPortSelected):
		return http.StatusNotFound
	case errors.Is(err, connection.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, connection.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, command.ErrUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

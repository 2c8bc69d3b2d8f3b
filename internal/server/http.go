package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/views"
)

// ActorHeader carries the authenticated actor. Requests without it are
// anonymous.
const ActorHeader = "X-History-Actor"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *HistoryServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/views", s.handleOpenView)
	mux.HandleFunc("GET /v1/views", s.handleListViews)
	mux.HandleFunc("GET /v1/views/{id}", s.handleGetView)
	mux.HandleFunc("DELETE /v1/views/{id}", s.handleDeleteView)
	mux.HandleFunc("POST /v1/views/{id}/select", s.handleSelect)
	mux.HandleFunc("POST /v1/views/{id}/random", s.handleRandom)
	mux.HandleFunc("POST /v1/views/{id}/auth", s.handleAuthPrompt)
	mux.HandleFunc("POST /v1/views/{id}/quota/dismiss", s.handleQuotaDismiss)
	mux.HandleFunc("POST /v1/views/{id}/close", s.handleCloseSession)
	mux.HandleFunc("POST /v1/views/{id}/navigate", s.handleNavigate)
	mux.HandleFunc("POST /v1/views/{id}/tasks", s.handleViewTask)
	mux.HandleFunc("POST /v1/views/{id}/notify", s.handleNotify)
	mux.HandleFunc("DELETE /v1/views/{id}/notification", s.handleClearNotification)
	mux.HandleFunc("POST /v1/research", s.handleCreateTask)
	mux.HandleFunc("GET /v1/research", s.handleListTasks)
	mux.HandleFunc("GET /v1/research/{token}", s.handleGetTask)
	mux.HandleFunc("POST /v1/enterprise/inquiry", s.handleInquiry)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *HistoryServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"views":  s.views.Len(),
	})
}

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	var ie inputError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ie), errors.As(err, &ve), errors.Is(err, gate.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, views.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, gate.ErrNoSession), errors.Is(err, gate.ErrSessionChanged):
		return http.StatusConflict
	case errors.Is(err, gate.ErrClosed):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// writeErr writes err with the status statusFor assigns it.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return inputError("invalid JSON body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

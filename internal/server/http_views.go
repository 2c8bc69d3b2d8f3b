package server

import (
	"net/http"

	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/views"
)

// viewResponse is a view's gate snapshot tagged with its ID.
type viewResponse struct {
	ID string `json:"id"`
	gate.View
}

func snapshotOf(v *views.View) viewResponse {
	return viewResponse{ID: v.ID, View: v.Gate.Snapshot()}
}

// handleOpenView handles POST /v1/views.
func (s *HistoryServer) handleOpenView(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}

	v, err := s.views.Open(r.Context(), in.URL)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshotOf(v))
}

// handleListViews handles GET /v1/views.
func (s *HistoryServer) handleListViews(w http.ResponseWriter, _ *http.Request) {
	entries := s.views.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"views": entries,
		"total": len(entries),
	})
}

// handleGetView handles GET /v1/views/{id}.
func (s *HistoryServer) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleDeleteView handles DELETE /v1/views/{id}.
func (s *HistoryServer) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Close(r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectInput struct {
	Location model.Location `json:"location"`
	Token    string         `json:"token,omitempty"`
}

// handleSelect handles POST /v1/views/{id}/select.
func (s *HistoryServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	var in selectInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	c := model.Candidate{Location: in.Location, Token: in.Token}
	if _, err := v.Gate.RequestSelection(r.Context(), c, identityFrom(r.Header.Get(ActorHeader))); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleRandom handles POST /v1/views/{id}/random.
func (s *HistoryServer) handleRandom(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	if _, err := v.Gate.RequestRandom(r.Context(), identityFrom(r.Header.Get(ActorHeader))); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleAuthPrompt handles POST /v1/views/{id}/auth.
func (s *HistoryServer) handleAuthPrompt(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	var in struct {
		Outcome model.AuthOutcome `json:"outcome"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	if _, err := v.Gate.ResolveAuthPrompt(r.Context(), in.Outcome); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleQuotaDismiss handles POST /v1/views/{id}/quota/dismiss.
func (s *HistoryServer) handleQuotaDismiss(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	if err := v.Gate.ResolveQuotaPrompt(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleCloseSession handles POST /v1/views/{id}/close.
func (s *HistoryServer) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	if err := v.Gate.CloseSession(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleNavigate handles POST /v1/views/{id}/navigate. The body names either
// a history direction ("back" or "forward") or a URL the user navigated to.
func (s *HistoryServer) handleNavigate(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	var in struct {
		Direction string `json:"direction,omitempty"`
		URL       string `json:"url,omitempty"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}

	var url string
	switch {
	case in.URL != "" && in.Direction != "":
		writeError(w, http.StatusBadRequest, "specify either direction or url, not both")
		return
	case in.URL != "":
		url = in.URL
		v.History.Push(url)
	case in.Direction == "back":
		if url, ok = v.History.Back(); !ok {
			writeError(w, http.StatusConflict, "no earlier history entry")
			return
		}
	case in.Direction == "forward":
		if url, ok = v.History.Forward(); !ok {
			writeError(w, http.StatusConflict, "no later history entry")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, `direction must be "back" or "forward"`)
		return
	}

	v.Links.Navigated(url)
	writeJSON(w, http.StatusOK, snapshotOf(v))
}

// handleViewTask handles POST /v1/views/{id}/tasks. It creates a research
// task for the view's open session and attaches its token to the session.
// When the session changes while the task is being created the task is
// kept but not attached, and 409 is returned.
func (s *HistoryServer) handleViewTask(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	snap := v.Gate.Snapshot()
	switch {
	case snap.Session == nil:
		writeErr(w, gate.ErrNoSession)
		return
	case snap.Resolving:
		writeError(w, http.StatusConflict, "session is still resolving")
		return
	case snap.Session.Token != "":
		writeError(w, http.StatusConflict, "session already has research task "+snap.Session.Token)
		return
	}

	actor := r.Header.Get(ActorHeader)
	task, err := s.createTask(r, snap.Session.Location, actor)
	if err != nil {
		writeErr(w, err)
		return
	}
	if _, err := v.Gate.TaskCreated(r.Context(), *snap.Session, task.Token, identityFrom(actor)); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"task": task,
		"view": snapshotOf(v),
	})
}

// handleNotify handles POST /v1/views/{id}/notify.
func (s *HistoryServer) handleNotify(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	var in struct {
		Severity model.Severity `json:"severity"`
		Message  string         `json:"message"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	if in.Severity == "" {
		in.Severity = model.SeverityInfo
	}
	if !in.Severity.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid severity "+string(in.Severity))
		return
	}
	if in.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	n := v.Gate.Notify(in.Severity, in.Message)
	writeJSON(w, http.StatusOK, n)
}

// handleClearNotification handles DELETE /v1/views/{id}/notification.
func (s *HistoryServer) handleClearNotification(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	v.Gate.ClearNotification()
	w.WriteHeader(http.StatusNoContent)
}

// lookupView resolves the {id} path value, writing a 404 when the view is
// unknown.
func (s *HistoryServer) lookupView(w http.ResponseWriter, r *http.Request) (*views.View, bool) {
	v, err := s.views.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return v, true
}

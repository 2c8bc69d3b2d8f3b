package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/history/internal/events"
	"github.com/alfredjeanlab/history/internal/idgen"
	"github.com/alfredjeanlab/history/internal/model"
)

// createTask stores a new queued research task for loc and publishes a
// ResearchCreated event. Returns a ValidationError for a bad location.
func (s *HistoryServer) createTask(r *http.Request, loc model.Location, actor string) (*model.ResearchTask, error) {
	token, err := idgen.Token()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	task := &model.ResearchTask{
		Token:        token,
		LocationName: strings.TrimSpace(loc.Name),
		LocationLat:  loc.Lat,
		LocationLng:  loc.Lng,
		Status:       model.TaskQueued,
		CreatedBy:    actor,
	}
	if err := model.ValidateTask(task); err != nil {
		return nil, err
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		return nil, fmt.Errorf("create research task: %w", err)
	}

	s.publish(r.Context(), events.TopicResearchCreated, events.ResearchCreated{Task: task})
	return task, nil
}

// handleCreateTask handles POST /v1/research.
func (s *HistoryServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Location model.Location `json:"location"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}

	task, err := s.createTask(r, in.Location, r.Header.Get(ActorHeader))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks handles GET /v1/research.
func (s *HistoryServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		CreatedBy: q.Get("created_by"),
	}

	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			status := model.TaskStatus(strings.TrimSpace(st))
			if !status.IsValid() {
				writeError(w, http.StatusBadRequest, "invalid status "+string(status))
				return
			}
			filter.Status = append(filter.Status, status)
		}
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	tasks, total, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list research tasks")
		return
	}

	// Ensure tasks is never null in JSON output.
	if tasks == nil {
		tasks = []*model.ResearchTask{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": total,
	})
}

// handleGetTask handles GET /v1/research/{token}. The body is the bare task,
// which is what resolver.HTTPLookup decodes.
func (s *HistoryServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), r.PathValue("token"))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "research task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get research task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleInquiry handles POST /v1/enterprise/inquiry. Valid inquiries are
// published for the mailer.
func (s *HistoryServer) handleInquiry(w http.ResponseWriter, r *http.Request) {
	var in model.Inquiry
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	if err := model.ValidateInquiry(&in); err != nil {
		writeErr(w, err)
		return
	}

	s.publish(r.Context(), events.TopicEnterpriseInquiry, events.InquiryReceived{Inquiry: &in})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

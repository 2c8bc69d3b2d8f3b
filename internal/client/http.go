package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/views"
)

// ActorHeader names the caller to the server. Must match server.ActorHeader.
const ActorHeader = "X-History-Actor"

// HTTPClient implements HistoryClient using the history HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	actor      string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option { return func(c *HTTPClient) { c.token = token } }

// WithActor identifies the caller. Without it requests are anonymous.
func WithActor(actor string) Option { return func(c *HTTPClient) { c.actor = actor } }

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *HTTPClient) { c.httpClient = hc } }

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Views ---

func viewPath(id string, suffix ...string) string {
	return "/v1/views/" + url.PathEscape(id) + strings.Join(suffix, "")
}

func (c *HTTPClient) viewCall(ctx context.Context, method, path string, body any) (*View, error) {
	var v View
	if err := c.doJSON(ctx, method, path, body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) OpenView(ctx context.Context, initialURL string) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, "/v1/views", map[string]string{"url": initialURL})
}

func (c *HTTPClient) GetView(ctx context.Context, id string) (*View, error) {
	return c.viewCall(ctx, http.MethodGet, viewPath(id), nil)
}

func (c *HTTPClient) ListViews(ctx context.Context) ([]views.Entry, error) {
	var resp struct {
		Views []views.Entry `json:"views"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/views", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Views, nil
}

func (c *HTTPClient) CloseView(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, viewPath(id), nil, nil)
}

func (c *HTTPClient) Select(ctx context.Context, id string, req *SelectRequest) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/select"), req)
}

func (c *HTTPClient) Random(ctx context.Context, id string) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/random"), nil)
}

func (c *HTTPClient) ResolveAuth(ctx context.Context, id string, outcome model.AuthOutcome) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/auth"), map[string]string{"outcome": string(outcome)})
}

func (c *HTTPClient) DismissQuota(ctx context.Context, id string) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/quota/dismiss"), nil)
}

func (c *HTTPClient) CloseSession(ctx context.Context, id string) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/close"), nil)
}

func (c *HTTPClient) Navigate(ctx context.Context, id string, req *NavigateRequest) (*View, error) {
	return c.viewCall(ctx, http.MethodPost, viewPath(id, "/navigate"), req)
}

func (c *HTTPClient) CreateViewTask(ctx context.Context, id string) (*ViewTaskResponse, error) {
	var resp ViewTaskResponse
	if err := c.doJSON(ctx, http.MethodPost, viewPath(id, "/tasks"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Notify(ctx context.Context, id string, severity model.Severity, message string) (*model.Notification, error) {
	body := map[string]string{"severity": string(severity), "message": message}
	var n model.Notification
	if err := c.doJSON(ctx, http.MethodPost, viewPath(id, "/notify"), body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) ClearNotification(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, viewPath(id, "/notification"), nil, nil)
}

// --- Research tasks ---

func (c *HTTPClient) CreateTask(ctx context.Context, loc model.Location) (*model.ResearchTask, error) {
	var task model.ResearchTask
	if err := c.doJSON(ctx, http.MethodPost, "/v1/research", map[string]any{"location": loc}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, token string) (*model.ResearchTask, error) {
	var task model.ResearchTask
	if err := c.doJSON(ctx, http.MethodGet, "/v1/research/"+url.PathEscape(token), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	q := url.Values{}
	if req.CreatedBy != "" {
		q.Set("created_by", req.CreatedBy)
	}
	if len(req.Status) > 0 {
		q.Set("status", strings.Join(req.Status, ","))
	}
	if !req.Since.IsZero() {
		q.Set("since", req.Since.UTC().Format(time.RFC3339))
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/research"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListTasksResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Enterprise ---

func (c *HTTPClient) SubmitInquiry(ctx context.Context, inquiry *model.Inquiry) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/enterprise/inquiry", inquiry, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set(ActorHeader, c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content has no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

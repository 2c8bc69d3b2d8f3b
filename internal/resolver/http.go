package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/history/internal/model"
)

// HTTPLookup fetches research tasks from GET {baseURL}/v1/research/{token}.
type HTTPLookup struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPLookup targets baseURL (e.g. "http://localhost:8080"). When token
// is non-empty it is sent as a bearer token.
func NewHTTPLookup(baseURL, token string) *HTTPLookup {
	return &HTTPLookup{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Lookup implements Lookup.
func (l *HTTPLookup) Lookup(ctx context.Context, token string) (*model.ResearchTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/v1/research/"+url.PathEscape(token), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("lookup %s: HTTP %d", token, resp.StatusCode)
	}

	var task model.ResearchTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &task, nil
}

// Package client provides a transport-agnostic interface for the history
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/views"
)

// HistoryClient is the interface that hist CLI commands use to communicate
// with the history server. It is implemented by HTTPClient.
type HistoryClient interface {
	// Views
	OpenView(ctx context.Context, url string) (*View, error)
	GetView(ctx context.Context, id string) (*View, error)
	ListViews(ctx context.Context) ([]views.Entry, error)
	CloseView(ctx context.Context, id string) error
	Select(ctx context.Context, id string, req *SelectRequest) (*View, error)
	Random(ctx context.Context, id string) (*View, error)
	ResolveAuth(ctx context.Context, id string, outcome model.AuthOutcome) (*View, error)
	DismissQuota(ctx context.Context, id string) (*View, error)
	CloseSession(ctx context.Context, id string) (*View, error)
	Navigate(ctx context.Context, id string, req *NavigateRequest) (*View, error)
	CreateViewTask(ctx context.Context, id string) (*ViewTaskResponse, error)
	Notify(ctx context.Context, id string, severity model.Severity, message string) (*model.Notification, error)
	ClearNotification(ctx context.Context, id string) error

	// Research tasks
	CreateTask(ctx context.Context, loc model.Location) (*model.ResearchTask, error)
	GetTask(ctx context.Context, token string) (*model.ResearchTask, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)

	// Enterprise
	SubmitInquiry(ctx context.Context, inquiry *model.Inquiry) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// TaskReader is the read-only subset served over both HTTP and gRPC.
type TaskReader interface {
	GetTask(ctx context.Context, token string) (*model.ResearchTask, error)
	Health(ctx context.Context) (string, error)
	Close() error
}

// View is a view's gate snapshot as returned by the server.
type View struct {
	ID string `json:"id"`
	gate.View
}

// SelectRequest asks a view to open research for a location. Token is set
// when the location already has a research task.
type SelectRequest struct {
	Location model.Location `json:"location"`
	Token    string         `json:"token,omitempty"`
}

// NavigateRequest reports a browser navigation: either a history Direction
// ("back" or "forward") or a URL.
type NavigateRequest struct {
	Direction string `json:"direction,omitempty"`
	URL       string `json:"url,omitempty"`
}

// ViewTaskResponse is the response from CreateViewTask.
type ViewTaskResponse struct {
	Task *model.ResearchTask `json:"task"`
	View *View               `json:"view"`
}

// ListTasksRequest holds parameters for listing research tasks.
type ListTasksRequest struct {
	CreatedBy string
	Status    []string
	Since     time.Time
	Limit     int
	Offset    int
}

// ListTasksResponse is the response from ListTasks.
type ListTasksResponse struct {
	Tasks []*model.ResearchTask `json:"tasks"`
	Total int                   `json:"total"`
}

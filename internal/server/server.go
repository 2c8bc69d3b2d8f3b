package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/deeplink"
	"github.com/alfredjeanlab/history/internal/events"
	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/rpc"
	"github.com/alfredjeanlab/history/internal/store"
	"github.com/alfredjeanlab/history/internal/views"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Deps are the collaborators a HistoryServer wires into every view.
type Deps struct {
	Store     store.Store
	Publisher events.Publisher
	Quota     gate.QuotaGate
	Resolver  gate.Resolver
	Random    gate.RandomPicker
	Clock     clock.Clock
	Logger    *slog.Logger

	// DeepLinkParam is the URL query parameter carrying the research token.
	DeepLinkParam string

	// NotificationTTL overrides the default notification lifetime.
	NotificationTTL time.Duration
}

// HistoryServer serves research tasks and the per-view access gates over
// HTTP and gRPC.
type HistoryServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	views     *views.Registry
	deps      Deps
}

var _ rpc.ResearchServiceServer = (*HistoryServer)(nil)

// NewHistoryServer returns a HistoryServer backed by deps. Store, Quota and
// Resolver are required.
func NewHistoryServer(deps Deps) *HistoryServer {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.DeepLinkParam == "" {
		deps.DeepLinkParam = deeplink.DefaultParam
	}

	s := &HistoryServer{
		store:     deps.Store,
		publisher: deps.Publisher,
		sseHub:    newSSEHub(),
		deps:      deps,
	}
	s.views = views.New(s.buildView,
		views.WithParam(deps.DeepLinkParam),
		views.WithClock(deps.Clock),
		views.WithLogger(deps.Logger),
	)
	return s
}

// Views returns the registry of open views.
func (s *HistoryServer) Views() *views.Registry { return s.views }

// buildView wires a gate orchestrator whose observer fans events out to
// NATS and SSE clients.
func (s *HistoryServer) buildView(id string, links *deeplink.Store) (*gate.Orchestrator, error) {
	return gate.New(gate.Config{
		Links:           links,
		Quota:           s.deps.Quota,
		Resolver:        s.deps.Resolver,
		Random:          s.deps.Random,
		Observer:        events.NewViewObserver(teePublisher{s}, id, s.deps.Logger),
		Clock:           s.deps.Clock,
		Logger:          s.deps.Logger.With("view", id),
		GuestActor:      "guest:" + id,
		NotificationTTL: s.deps.NotificationTTL,
	}), nil
}

// publish sends an event to NATS and to connected SSE clients. Failures are
// logged and never block the caller.
func (s *HistoryServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// teePublisher adapts publish to events.Publisher for view observers.
type teePublisher struct{ s *HistoryServer }

func (t teePublisher) Publish(ctx context.Context, topic string, event any) error {
	t.s.publish(ctx, topic, event)
	return nil
}

func (teePublisher) Close() error { return nil }

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// ResolveTask returns the research task for a token.
func (s *HistoryServer) ResolveTask(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	token := req.GetValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	task, err := s.store.GetTask(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.Error(codes.NotFound, "research task not found")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get research task: %v", err)
	}

	out, err := rpc.TaskToStruct(task)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode research task: %v", err)
	}
	return out, nil
}

// Health returns the service health status.
func (s *HistoryServer) Health(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}

// identityFrom returns the caller's identity, or nil for anonymous callers.
func identityFrom(actor string) *model.Identity {
	if actor == "" {
		return nil
	}
	return &model.Identity{Actor: actor}
}

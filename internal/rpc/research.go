// Package rpc defines the history.v1.ResearchService gRPC contract.
//
// The service is described by hand over protobuf well-known types instead of
// generated stubs: requests and responses are StringValue, Struct and Empty,
// so the default proto codec carries them unchanged.
package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "history.v1.ResearchService"
	ResolveTaskMethod = "/" + ServiceName + "/ResolveTask"
	HealthMethod      = "/" + ServiceName + "/Health"
)

// ResearchServiceServer is implemented by the history server.
type ResearchServiceServer interface {
	// ResolveTask returns the research task for a token as a Struct with the
	// model.ResearchTask JSON field names. Unknown tokens yield codes.NotFound.
	ResolveTask(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
	Health(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterResearchServiceServer registers srv on s.
func RegisterResearchServiceServer(s grpc.ServiceRegistrar, srv ResearchServiceServer) {
	s.RegisterService(&ResearchServiceDesc, srv)
}

// ResearchServiceDesc is the grpc.ServiceDesc for history.v1.ResearchService.
var ResearchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResearchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolveTask", Handler: resolveTaskHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "history/v1/research.proto",
}

func resolveTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResearchServiceServer).ResolveTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ResolveTaskMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResearchServiceServer).ResolveTask(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResearchServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResearchServiceServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ResearchServiceClient calls history.v1.ResearchService.
type ResearchServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewResearchServiceClient returns a client over cc.
func NewResearchServiceClient(cc grpc.ClientConnInterface) *ResearchServiceClient {
	return &ResearchServiceClient{cc: cc}
}

// ResolveTask fetches the research task for token.
func (c *ResearchServiceClient) ResolveTask(ctx context.Context, token string, opts ...grpc.CallOption) (*model.ResearchTask, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ResolveTaskMethod, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return TaskFromStruct(out)
}

// Health returns the server's health status string.
func (c *ResearchServiceClient) Health(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, HealthMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// TaskToStruct converts a task to its wire form.
func TaskToStruct(t *model.ResearchTask) (*structpb.Struct, error) {
	fields := map[string]any{
		"token":         t.Token,
		"location_name": t.LocationName,
		"location_lat":  t.LocationLat,
		"location_lng":  t.LocationLng,
		"status":        string(t.Status),
		"created_at":    t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.CreatedBy != "" {
		fields["created_by"] = t.CreatedBy
	}
	return structpb.NewStruct(fields)
}

// TaskFromStruct converts the wire form back to a task.
func TaskFromStruct(s *structpb.Struct) (*model.ResearchTask, error) {
	f := s.GetFields()
	t := &model.ResearchTask{
		Token:        f["token"].GetStringValue(),
		LocationName: f["location_name"].GetStringValue(),
		LocationLat:  f["location_lat"].GetNumberValue(),
		LocationLng:  f["location_lng"].GetNumberValue(),
		Status:       model.TaskStatus(f["status"].GetStringValue()),
		CreatedBy:    f["created_by"].GetStringValue(),
	}
	if ts := f["created_at"].GetStringValue(); ts != "" {
		created, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		t.CreatedAt = created
	}
	if t.Token == "" {
		return nil, fmt.Errorf("research task has no token")
	}
	return t, nil
}

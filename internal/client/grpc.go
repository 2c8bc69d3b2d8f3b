package client

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// GRPCClient implements TaskReader over history.v1.ResearchService.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client *rpc.ResearchServiceClient
	token  string
}

var (
	_ TaskReader = (*GRPCClient)(nil)
	_ TaskReader = (*HTTPClient)(nil)
)

// NewGRPCClient connects to the given gRPC address and returns a client.
// When token is non-empty it is sent as bearer authorization metadata.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: rpc.NewResearchServiceClient(conn),
		token:  token,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) authed(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func (c *GRPCClient) GetTask(ctx context.Context, token string) (*model.ResearchTask, error) {
	task, err := c.client.ResolveTask(c.authed(ctx), token)
	if err != nil {
		return nil, fmt.Errorf("resolve task %s: %w", token, err)
	}
	return task, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	return c.client.Health(c.authed(ctx))
}

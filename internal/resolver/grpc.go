package resolver

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// GRPCLookup fetches research tasks over history.v1.ResearchService.
type GRPCLookup struct {
	conn   *grpc.ClientConn
	client *rpc.ResearchServiceClient
	token  string
}

// NewGRPCLookup connects to addr. When token is non-empty it is sent as
// bearer authorization metadata.
func NewGRPCLookup(addr, token string) (*GRPCLookup, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCLookup{conn: conn, client: rpc.NewResearchServiceClient(conn), token: token}, nil
}

// Lookup implements Lookup.
func (l *GRPCLookup) Lookup(ctx context.Context, token string) (*model.ResearchTask, error) {
	if l.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+l.token)
	}
	return l.client.ResolveTask(ctx, token)
}

// Close closes the underlying connection.
func (l *GRPCLookup) Close() error {
	return l.conn.Close()
}

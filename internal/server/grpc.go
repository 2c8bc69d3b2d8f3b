package server

import (
	"github.com/alfredjeanlab/history/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the ResearchService and reflection, and returns the server ready
// to serve. When authToken is non-empty every RPC but Health requires it.
func NewGRPCServer(historyServer *HistoryServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)

	rpc.RegisterResearchServiceServer(srv, historyServer)
	reflection.Register(srv)

	return srv
}

package server

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/tinderito/internal/config"
)

// NewGRPCServer builds a gRPC server and registers all provided services
func NewGRPCServer(registrars ...GRPCRegistrar) *grpc.Server {
	grpcServer := grpc.NewServer()

	// register all services
	for _, r := range registrars {
		r.RegisterGRPC(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// ServeGRPC listens on GRPC_HOST:GRPC_PORT and blocks until s stops.
func ServeGRPC(cfg *config.Config, s *grpc.Server) error {
	addr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

package server

import (
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all HTTP service registrars
type Registrar interface {
	Register(r chi.Router)
}

// GRPCRegistrar is implemented by services that also attach to the gRPC server
type GRPCRegistrar interface {
	RegisterGRPC(s *grpc.Server)
}

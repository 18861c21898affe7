// Package api exposes the ambient surfaces a node needs for operability:
// a gRPC health check an orchestration layer can probe, and a minimal
// operator-only status endpoint. Neither is the wallet/block-query surface
// named as out-of-scope by spec §1.
package api

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer hosts the standard gRPC health-checking service, so a
// liveness/readiness probe never needs a bespoke RPC just to ask "is this
// node up".
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
}

// NewGRPCServer constructs the server without starting it.
func NewGRPCServer() *GRPCServer {
	s := grpc.NewServer()
	h := health.NewServer()

	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{server: s, health: h}
}

// SetServing flips the overall health status once a node has passed
// genesis and is participating normally.
func (g *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
}

// Serve blocks, accepting connections on addr.
func (g *GRPCServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Printf("api: gRPC health server listening on %s", addr)
	return g.server.Serve(lis)
}

// Stop gracefully shuts the server down.
func (g *GRPCServer) Stop() {
	g.server.GracefulStop()
}

package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// The runtime wires health checks through Register and nothing else;
// grpc-go fatals on a second registration of the same service name.
func TestRegisterIsSoleHealthRegistrar(t *testing.T) {
	srv := grpc.NewServer()
	Register(srv, NewAttributionInternalServer(nil))
	info := srv.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Fatalf("health service not registered")
	}
	if len(info) != 1 {
		t.Fatalf("expected a single registered service, got %d", len(info))
	}
}

func TestCheckReportsServing(t *testing.T) {
	srv := NewAttributionInternalServer(nil)
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.Status)
	}
}

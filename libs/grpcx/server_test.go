package grpcx

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestProbeFollowsReadiness(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, hs := NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthy := make(chan bool, 1)
	healthy <- true
	check := runtime.ReadyCheck{Name: "dep", Check: func(context.Context) error {
		select {
		case ok := <-healthy:
			if !ok {
				return errors.New("down")
			}
		default:
			return errors.New("down")
		}
		return nil
	}}
	go WatchReadiness(ctx, hs, "svc", time.Hour, nil, check)

	addr := lis.Addr().String()
	deadline := time.Now().Add(3 * time.Second)
	for {
		status, err := Probe(context.Background(), addr, "svc", time.Second)
		if err == nil && status == healthpb.HealthCheckResponse_SERVING {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected SERVING, got %s (%v)", status, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestProbeUnreachable(t *testing.T) {
	if _, err := Probe(context.Background(), "127.0.0.1:1", "", 200*time.Millisecond); err == nil {
		t.Fatal("expected dial error")
	}
}

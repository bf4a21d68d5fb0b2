package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	libconfig "github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthService = "booking.v1.BookingService"

// healthcheck probes the gRPC health service; container HEALTHCHECKs run it
// as "booking-service healthcheck".
func healthcheck(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:"+libconfig.String("GRPC_PORT", "9093"), "gRPC address")
	timeout := fs.Duration("timeout", 3*time.Second, "probe timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	status, err := grpcx.Probe(context.Background(), *addr, healthService, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		return 1
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		fmt.Fprintln(os.Stderr, "healthcheck:", status.String())
		return 1
	}
	return 0
}

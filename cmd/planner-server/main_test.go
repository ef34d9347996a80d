package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/route-link-planner/internal/config"
	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	return lis
}

func TestPlannerServerStartupSmoke(t *testing.T) {
	// Stub elevation API returning 200 m for every requested point.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := len(strings.Split(r.URL.Query().Get("latitude"), ","))
		out := make([]float64, n)
		for i := range out {
			out[i] = 200
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"elevation": out})
	}))
	defer upstream.Close()

	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Server.MetricsAddr = ""
	cfg.Elevation.BaseURL = upstream.URL
	cfg.Fleet.Path = filepath.Join("missing", "fleet.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcLis, httpLis := listen(t), listen(t)
	log := logging.New(logging.Config{Level: "warn", Format: "text", Output: os.Stderr})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, grpcLis, httpLis)
	}()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	client := nbi.NewClient(conn)
	list, err := client.ListVehicles(ctx, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(list.Vehicles) != 5 {
		t.Fatalf("ListVehicles = %d vehicles, want built-in fleet of 5", len(list.Vehicles))
	}

	lat, lng1, lng2 := 55.7558, 37.6173, 37.69
	plan, err := client.PlanRoute(ctx, &types.PlanRouteRequest{
		Start:     &types.Coordinate{Lat: &lat, Lng: &lng1},
		End:       &types.Coordinate{Lat: &lat, Lng: &lng2},
		VehicleID: "3",
	})
	if err != nil {
		t.Fatalf("PlanRoute: %v", err)
	}
	if plan.Analysis.AnyCritical || len(plan.Profile) == 0 {
		t.Fatalf("plan over flat terrain = %+v", plan.Analysis)
	}

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func TestNewPublisherDisabledIsNoop(t *testing.T) {
	pub, err := newPublisher(config.KafkaConfig{})
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/config"
	"github.com/signalsfoundry/route-link-planner/internal/elevation"
	"github.com/signalsfoundry/route-link-planner/internal/events"
	"github.com/signalsfoundry/route-link-planner/internal/httpapi"
	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi"
	"github.com/signalsfoundry/route-link-planner/internal/observability"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
	"github.com/signalsfoundry/route-link-planner/kb"
)

func main() {
	configPath := flag.String("config", config.PathFromEnv(), "Path to the planner YAML config (defaults to configs/planner.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.Server.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, grpcLis, httpLis); err != nil {
		log.Error(ctx, "planner server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires every component from cfg and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, grpcLis, httpLis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewPlannerCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	fleet := loadFleet(ctx, cfg.Fleet.Path, log)
	unsubscribe := fleet.Subscribe(func(ev kb.Event) {
		log.Info(context.Background(), "fleet changed",
			logging.String("event", ev.Type.String()),
			logging.String("vehicle_id", ev.Vehicle.ID))
	})
	defer unsubscribe()

	source, err := elevation.NewClient(cfg.Elevation.BaseURL,
		elevation.WithTimeout(cfg.Elevation.Timeout),
		elevation.WithChunkSize(cfg.Elevation.ChunkSize),
		elevation.WithMaxRetries(cfg.Elevation.MaxRetries),
		elevation.WithRecorder(collector),
		elevation.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("elevation client: %w", err)
	}

	publisher, err := newPublisher(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn(context.Background(), "closing event publisher", logging.Err(err))
		}
	}()

	policy, err := core.LineOfSightPolicyByName(cfg.Analysis.LineOfSightPolicy)
	if err != nil {
		return err
	}
	svc := planning.NewService(source, fleet,
		[]core.PlannerOption{
			core.WithLineOfSightPolicy(policy),
			core.WithUnrangedCeilingKm(cfg.Analysis.UnrangedCeilingKm),
		},
		planning.WithMetricsRecorder(collector),
		planning.WithPublisher(publisher),
		planning.WithLogger(log),
		planning.WithDefaultFrequencyGHz(cfg.Analysis.DefaultFrequencyGHz),
	)

	grpcServer := nbi.NewServer(svc, log, collector)
	httpServer := httpapi.NewServer(cfg.Server.HTTPAddr, httpapi.NewRouter(svc, fleet, log, collector), log)

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "starting planner gRPC server",
			logging.String("addr", grpcLis.Addr().String()),
			logging.String("policy", svc.Policy()))
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := httpServer.Serve(httpLis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down planner server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "HTTP shutdown", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return serveErr
}

func serveMetrics(addr string, collector *observability.PlannerCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// loadFleet reads the fleet file, falling back to the built-in fleet.
func loadFleet(ctx context.Context, path string, log logging.Logger) *kb.Catalog {
	if path == "" {
		return kb.DefaultFleet()
	}
	catalog, err := kb.LoadFleetFile(path)
	if err != nil {
		log.Warn(ctx, "using built-in fleet", logging.String("path", path), logging.Err(err))
		return kb.DefaultFleet()
	}
	log.Info(ctx, "loaded fleet", logging.String("path", path), logging.Int("count", catalog.Len()))
	return catalog
}

func newPublisher(cfg config.KafkaConfig) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.Noop(), nil
	}
	return events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Brokers, Topic: cfg.Topic})
}

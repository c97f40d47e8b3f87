package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/techroy23/Socksy-Dashboard/internal/api"
	"github.com/techroy23/Socksy-Dashboard/internal/config"
	"github.com/techroy23/Socksy-Dashboard/internal/metrics"
	"github.com/techroy23/Socksy-Dashboard/internal/prober"
	"github.com/techroy23/Socksy-Dashboard/internal/proxylist"
	"github.com/techroy23/Socksy-Dashboard/internal/round"
	"github.com/techroy23/Socksy-Dashboard/internal/storage"
)

const version = "1.0.0"

func main() {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	log.Infof("Starting Socksy Dashboard v%s", version)

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if level, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace)

	store, err := storage.NewStore(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	list, err := proxylist.NewFile(cfg.Proxies.File)
	if err != nil {
		log.Fatalf("Failed to open proxy list: %v", err)
	}

	prb := prober.New(cfg.Prober.TestURL, time.Duration(cfg.Prober.TimeoutMs)*time.Millisecond)
	recorder := round.NewRecorder(store, collector)
	coordinator := round.NewCoordinator(prb, recorder, cfg.Prober.PoolSize, collector)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runSchedulerLoop(ctx, coordinator, list, cfg.Scheduler.IntervalSeconds)

	apiServer := api.NewServer(cfg, store, list, collector)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatalf("Dashboard server failed: %v", err)
		}
	}()

	log.Infof("Service started successfully on %s", cfg.API.Addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Dashboard server shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}

// runSchedulerLoop runs one round eagerly, then one per tick. Rounds run
// serially on this goroutine, so a new round never starts while the
// previous one is in flight.
func runSchedulerLoop(ctx context.Context, coordinator *round.Coordinator, list *proxylist.File, intervalSeconds int) {
	runOneRound(ctx, coordinator, list)

	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return
		case <-ticker.C:
			runOneRound(ctx, coordinator, list)
		}
	}
}

func runOneRound(ctx context.Context, coordinator *round.Coordinator, list *proxylist.File) {
	endpoints, err := list.Endpoints()
	if err != nil {
		log.Errorf("Failed to read proxy list: %v", err)
		return
	}
	if len(endpoints) == 0 {
		log.Debug("No valid proxies configured, skipping round")
		return
	}

	coordinator.Run(ctx, endpoints)
}

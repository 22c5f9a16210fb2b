// Command simulate-worker is the long-running process that wires A1-A4
// together and runs the Direct Execution Worker (C4) and the Batch
// Orchestrator (C5) against the simulation-direct and simulation-batch
// queue topics. Which of the two run is decided by SIMULATION_MODE:
// direct mode starts the worker pool, batch mode starts the batch
// consumer. Mirrors cmd/server's shape (config.Load, logger.Setup,
// signal-driven graceful shutdown) from when this repo shipped a REST API
// instead of a queue-driven simulation core.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursesim/simcore/internal/batchsvc"
	"github.com/coursesim/simcore/internal/domain"
	"github.com/coursesim/simcore/internal/infrastructure/aiclient"
	"github.com/coursesim/simcore/internal/infrastructure/config"
	"github.com/coursesim/simcore/internal/infrastructure/logger"
	infraqueue "github.com/coursesim/simcore/internal/infrastructure/queue"
	"github.com/coursesim/simcore/internal/infrastructure/storage"
	"github.com/coursesim/simcore/internal/jobsvc"
	"github.com/coursesim/simcore/internal/ledger"
	"github.com/coursesim/simcore/internal/notify"
	"github.com/coursesim/simcore/internal/simcontext"
	"github.com/coursesim/simcore/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel)
	zlog := logger.NewZerolog(cfg.LogLevel)
	log.Info("starting simulate-worker",
		"mode", string(cfg.SimulationMode),
		"model", cfg.Model,
	)

	store := storage.NewBunStore(cfg.DatabaseDSN)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.InitSchema(ctx); err != nil {
		log.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}
	log.Info("database schema initialized")

	q, err := infraqueue.New(cfg.RedisAddr, zlog)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	go q.RunPromoters(ctx, time.Second)

	oracle := aiclient.New(cfg.OpenAIKey)
	ledgerEngine := ledger.New(store, store, zlog)
	jobs := jobsvc.New(store, store, zlog)
	notifier := notify.New(notify.NewQueueSink(q), zlog)

	repos := simcontext.Repositories{
		Classrooms:  store,
		Stores:      store,
		Scenarios:   store,
		Submissions: store,
		Ledgers:     store,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutdown signal received, draining in-flight work...")
		cancel()
	}()

	switch cfg.SimulationMode {
	case domain.ModeBatch:
		batches := batchsvc.New(cfg.BatchConfig(), store, store, jobs, ledgerEngine, oracle, q, repos, notifier, zlog)
		log.Info("batch orchestrator starting", "pollSeconds", cfg.BatchPollSeconds)
		batches.Run(ctx)

	default:
		w := worker.New(cfg.WorkerConfig(), jobs, store, ledgerEngine, oracle, q, repos, notifier, zlog)
		log.Info("direct worker pool starting", "concurrency", cfg.DirectWorkerConcurrency)
		w.Run(ctx)
	}

	log.Info("simulate-worker exited gracefully")
}

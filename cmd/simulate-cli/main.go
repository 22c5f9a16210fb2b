// Command simulate-cli is the in-scope stand-in for an interactive
// developer tool: two flag-driven subcommands, run directly against the
// database with no queue in between.
//
//	simulate-cli run -scenario=<id> -user=<id>
//
// creates a DryRun job for one student and executes it synchronously
// through the same Worker.Execute path the production worker uses, then
// prints the resulting ledger entry candidate as JSON without persisting
// anything. It is the instructor/developer spot-check §6 calls for.
//
//	simulate-cli close-scenario -scenario=<id>
//
// runs the Simulation Orchestrator's ScenarioClosed trigger directly,
// since nothing else in this binary set calls it: in a full deployment
// that call is wired to whatever marks a scenario closed (a cron job, an
// LMS webhook), which is out of scope here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/domain"
	"github.com/coursesim/simcore/internal/infrastructure/aiclient"
	"github.com/coursesim/simcore/internal/infrastructure/config"
	"github.com/coursesim/simcore/internal/infrastructure/logger"
	infraqueue "github.com/coursesim/simcore/internal/infrastructure/queue"
	"github.com/coursesim/simcore/internal/infrastructure/storage"
	"github.com/coursesim/simcore/internal/jobsvc"
	"github.com/coursesim/simcore/internal/ledger"
	"github.com/coursesim/simcore/internal/orchestrator"
	"github.com/coursesim/simcore/internal/simcontext"
	"github.com/coursesim/simcore/internal/worker"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: simulate-cli <run|close-scenario> [flags]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel)
	zlog := logger.NewZerolog(cfg.LogLevel)

	store := storage.NewBunStore(cfg.DatabaseDSN)
	ctx := context.Background()

	switch os.Args[1] {
	case "run":
		runDryRun(ctx, cfg, store, zlog, log, os.Args[2:])
	case "close-scenario":
		closeScenario(ctx, cfg, store, zlog, log, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runDryRun(ctx context.Context, cfg *config.Config, store *storage.BunStore, zlog zerolog.Logger, log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenarioFlag := fs.String("scenario", "", "scenario id")
	userFlag := fs.String("user", "", "user id")
	fs.Parse(args)

	scenarioID, err := uuid.Parse(*scenarioFlag)
	if err != nil {
		log.Error("invalid -scenario", "error", err)
		os.Exit(1)
	}
	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Error("invalid -user", "error", err)
		os.Exit(1)
	}

	scenario, err := store.GetScenario(ctx, scenarioID)
	if err != nil {
		log.Error("loading scenario failed", "error", err)
		os.Exit(1)
	}

	storeRec, err := store.GetStoreByUser(ctx, scenario.ClassroomID, userID)
	if err != nil {
		log.Error("loading store failed", "error", err)
		os.Exit(1)
	}

	submission, err := store.GetSubmission(ctx, scenarioID, userID)
	if err != nil {
		log.Error("loading submission failed", "error", err)
		os.Exit(1)
	}
	if submission == nil {
		log.Error("no submission on file for this scenario and user")
		os.Exit(1)
	}

	ledgerEngine := ledger.New(store, store, zlog)
	jobs := jobsvc.New(store, store, zlog)

	prior, err := ledgerEngine.PriorState(ctx, storeRec.ID, userID)
	if err != nil {
		log.Error("computing prior state failed", "error", err)
		os.Exit(1)
	}

	job, err := jobs.Create(ctx, jobsvc.CreateInput{
		ClassroomID:            scenario.ClassroomID,
		ScenarioID:             scenarioID,
		UserID:                 userID,
		SubmissionID:           submission.ID,
		DryRun:                 true,
		ExpectedCashBefore:     domain.NewJobMoney(prior.CashBefore),
		ExpectedInventoryState: prior.InventoryState,
		CalculationContextSnapshot: map[string]any{
			"storeId":          storeRec.ID.String(),
			"storeTypeId":      storeRec.StoreTypeID.String(),
			"submissionMethod": string(submission.Method),
			"decisions":        submission.Decisions,
		},
	})
	if err != nil {
		log.Error("creating dry-run job failed", "error", err)
		os.Exit(1)
	}

	repos := simcontext.Repositories{
		Classrooms:  store,
		Stores:      store,
		Scenarios:   store,
		Submissions: store,
		Ledgers:     store,
	}
	oracle := aiclient.New(cfg.OpenAIKey)
	// No queue and no notifier: Worker.Execute never touches either, it
	// only builds the request, calls the oracle, and validates the reply.
	w := worker.New(cfg.WorkerConfig(), jobs, store, ledgerEngine, oracle, nil, repos, nil, zlog)

	result, simErr := w.Execute(ctx, job)
	if simErr != nil {
		log.Error("dry run failed", "kind", string(simErr.Kind), "message", simErr.Message)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result.LedgerInput, "", "  ")
	if err != nil {
		log.Error("encoding result failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func closeScenario(ctx context.Context, cfg *config.Config, store *storage.BunStore, zlog zerolog.Logger, log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("close-scenario", flag.ExitOnError)
	scenarioFlag := fs.String("scenario", "", "scenario id")
	fs.Parse(args)

	scenarioID, err := uuid.Parse(*scenarioFlag)
	if err != nil {
		log.Error("invalid -scenario", "error", err)
		os.Exit(1)
	}

	q, err := infraqueue.New(cfg.RedisAddr, zlog)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	ledgerEngine := ledger.New(store, store, zlog)
	jobs := jobsvc.New(store, store, zlog)
	orch := orchestrator.New(cfg.OrchestratorConfig(), store, store, store, ledgerEngine, jobs, q, zlog)

	result, err := orch.ScenarioClosed(ctx, scenarioID)
	if err != nil {
		log.Error("closing scenario failed", "error", err)
		os.Exit(1)
	}

	log.Info("scenario closed", "jobsCreated", result.JobsCreated, "submissionsCreated", result.SubmissionsCreated)
}

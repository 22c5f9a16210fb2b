// Package worker implements the Direct Execution Worker (C4): a bounded
// pool of goroutines draining the simulation-direct queue topic, each
// running one job through the oracle and the Ledger Engine synchronously.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/domain/repository"
	"github.com/coursesim/simcore/internal/jobsvc"
	"github.com/coursesim/simcore/internal/ledger"
	"github.com/coursesim/simcore/internal/notify"
	"github.com/coursesim/simcore/internal/queue"
	"github.com/coursesim/simcore/internal/simcontext"
)

// Config tunes the worker pool. Concurrency and MaxAttempts have no
// universal default in §6 beyond DIRECT_WORKER_CONCURRENCY itself, so
// callers wire those from configuration; MaxAttempts bounds the "configured
// job retry budget" §5 mentions for direct attempts.
type Config struct {
	Concurrency         int
	MaxAttempts         int
	Model               string
	MaxMessageChars     int
	RandomEventSampling bool
}

// Worker is the Direct Execution Worker. It depends only on the narrow
// capability interfaces the core defines (§9): JobQueue, OracleClient, plus
// the jobsvc/ledger services and the read repositories simcontext.Build
// needs.
type Worker struct {
	cfg Config

	jobs   *jobsvc.Service
	ledger *ledger.Engine
	oracle aioracle.OracleClient
	queue  queue.JobQueue
	repos  simcontext.Repositories

	jobRepo repository.JobRepository

	// notifier is optional: a nil notifier means no outcome events are
	// emitted, which is valid for deployments that don't need C7.
	notifier *notify.Gateway

	now func() time.Time
	log zerolog.Logger
}

func New(
	cfg Config,
	jobs *jobsvc.Service,
	jobRepo repository.JobRepository,
	ledgerEngine *ledger.Engine,
	oracle aioracle.OracleClient,
	q queue.JobQueue,
	repos simcontext.Repositories,
	notifier *notify.Gateway,
	log zerolog.Logger,
) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = 25000
	}
	return &Worker{
		cfg: cfg, jobs: jobs, jobRepo: jobRepo, ledger: ledgerEngine,
		oracle: oracle, queue: q, repos: repos, notifier: notifier,
		now: time.Now, log: log,
	}
}

// WithClock returns a copy of w that stamps AIMetadata using now, for tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	clone := *w
	clone.now = now
	return &clone
}

// Run drains the simulation-direct topic with cfg.Concurrency goroutines
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := w.queue.DequeueDirect(ctx, 5*time.Second)
		if err != nil {
			w.log.Error().Err(err).Msg("dequeue direct job failed")
			continue
		}
		if msg == nil {
			continue
		}

		w.handle(ctx, msg.JobID)
	}
}

// handle runs a single job end to end per §4.4. It never returns an error:
// a failure of the job's execution or ledger append is either a retry
// (re-enqueue) or a terminal jobsvc.Fail call, both already persisted before
// handle returns; failures to parse, load, claim or complete the job are
// only logged.
func (w *Worker) handle(ctx context.Context, jobIDStr string) {
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		w.log.Error().Err(err).Str("jobId", jobIDStr).Msg("malformed job id on queue")
		return
	}

	job, err := w.jobRepo.GetJob(ctx, jobID)
	if err != nil {
		w.log.Error().Err(err).Str("jobId", jobIDStr).Msg("loading job failed")
		return
	}

	claimed, ok, err := w.jobs.Claim(ctx, jobID)
	if err != nil {
		w.log.Error().Err(err).Str("jobId", jobIDStr).Msg("claiming job failed")
		return
	}
	if !ok {
		// Another worker already has it, or it's no longer pending.
		return
	}
	job = claimed

	result, simErr := w.Execute(ctx, job)
	if simErr != nil {
		w.onError(ctx, job, simErr)
		return
	}

	var entryID *domain.LedgerEntryID
	if !job.DryRun {
		entry, err := w.ledger.Append(ctx, result.LedgerInput)
		if err != nil {
			if se, ok := simerrors.As(err); ok {
				w.onError(ctx, job, se)
				return
			}
			w.onError(ctx, job, simerrors.Internal("appending ledger entry", err))
			return
		}
		entryID = &entry.ID

		if w.notifier != nil {
			if err := w.notifier.NotifyLedgerEntry(ctx, entry); err != nil {
				w.log.Warn().Err(err).Str("jobId", jobIDStr).Str("entryId", entry.ID.String()).Msg("emitting outcome notification failed")
			}
		}
	}

	if _, err := w.jobs.Complete(ctx, job, entryID); err != nil {
		w.log.Error().Err(err).Str("jobId", jobIDStr).Msg("marking job completed failed")
	}
}

// Execute builds the request, calls the oracle, and validates the reply,
// per C2. It does not touch the Ledger — callers decide whether to append
// (handle does, for a live job; cmd/simulate-cli does not, for a spot-check
// dry run) — and it does not claim or mutate job state either, so it is
// also the entry point for running a job outside the claim/complete
// lifecycle entirely.
func (w *Worker) Execute(ctx context.Context, job domain.Job) (aioracle.Result, *simerrors.SimulationError) {
	rng := simcontext.DisabledRandomSource
	if w.cfg.RandomEventSampling {
		rng = simcontext.DefaultRandomSource
	}
	simCtx, err := simcontext.Build(ctx, job, w.repos, rng)
	if err != nil {
		se, _ := simerrors.As(err)
		return aioracle.Result{}, se
	}

	messages, err := aioracle.BuildMessages(simCtx)
	if err != nil {
		return aioracle.Result{}, simerrors.OracleContent("building oracle request", err)
	}
	messages = aioracle.Harden(messages, w.cfg.MaxMessageChars)

	req := aioracle.Request{Model: w.cfg.Model, Messages: messages}

	body, err := w.oracle.CreateChatCompletion(ctx, req)
	if err != nil {
		return aioracle.Result{}, classifyOracleError(job.Attempts, err)
	}

	raw, err := aioracle.Parse(body)
	if err != nil {
		return aioracle.Result{}, simerrors.OracleContent("parsing oracle reply", err)
	}

	aiMeta := domain.AIMetadata{Model: w.cfg.Model, RunID: job.ID.String(), GeneratedAt: w.now()}
	result, err := aioracle.Validate(raw, simCtx, job.ExpectedCashBefore.Decimal(), aiMeta, job.CalculationContextSnapshot)
	if err != nil {
		if se, ok := simerrors.As(err); ok {
			return aioracle.Result{}, se
		}
		return aioracle.Result{}, simerrors.OracleContent("validating oracle reply", err)
	}

	return result, nil
}

// onError classifies per §7: a retryable kind re-enqueues with backoff and
// leaves the job pending again; everything else is terminal.
func (w *Worker) onError(ctx context.Context, job domain.Job, simErr *simerrors.SimulationError) {
	if simErr.Kind.Retryable() && job.Attempts < w.cfg.MaxAttempts {
		if _, err := w.jobs.Release(ctx, job); err != nil {
			w.log.Error().Err(err).Str("jobId", job.ID.String()).Msg("releasing job after transient error failed")
			return
		}
		delay := nextBackoff(job.Attempts)
		msg := queue.DirectJobMessage{JobID: job.ID.String()}
		if err := w.queue.EnqueueDirectDelayed(ctx, msg, delay); err != nil {
			w.log.Error().Err(err).Str("jobId", job.ID.String()).Msg("re-enqueuing job after transient error failed")
		}
		w.log.Warn().Str("jobId", job.ID.String()).Dur("delay", delay).Int("attempt", job.Attempts).Msg("transient oracle error, retrying")
		return
	}

	if _, err := w.jobs.Fail(ctx, job, simErr.Kind, simErr.Message); err != nil {
		w.log.Error().Err(err).Str("jobId", job.ID.String()).Msg("marking job failed failed")
	}
}

func classifyOracleError(attempt int, err error) *simerrors.SimulationError {
	if se, ok := simerrors.As(err); ok {
		return se
	}
	if isTransientOracleError(err) {
		return simerrors.OracleTransient(attempt, err)
	}
	return simerrors.OraclePermanent(attempt, err)
}

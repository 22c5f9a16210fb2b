// Package batchsvc is the Batch Orchestrator (C5): submits a classroom's
// pending jobs to the oracle's asynchronous batch endpoint, polls until the
// batch resolves, and fans the output lines back out to the Ledger Engine.
package batchsvc

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	"github.com/coursesim/simcore/internal/domain/repository"
	"github.com/coursesim/simcore/internal/jobsvc"
	"github.com/coursesim/simcore/internal/ledger"
	"github.com/coursesim/simcore/internal/notify"
	"github.com/coursesim/simcore/internal/queue"
	"github.com/coursesim/simcore/internal/simcontext"
)

// Config carries the §6 environment options this service is driven by.
type Config struct {
	PollSeconds         int
	FinalizingSeconds   int
	MaxPollSeconds      int
	MaxAttemptsPoll     int
	MaxAttemptsSubmit   int
	Model               string
	MaxMessageChars     int
	SubmitDelaySeconds  int
	SubmitJitterSeconds int
	PollJitterSeconds   int
	RandomEventSampling bool
}

func defaultedConfig(cfg Config) Config {
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 120
	}
	if cfg.FinalizingSeconds <= 0 {
		cfg.FinalizingSeconds = 60
	}
	if cfg.MaxPollSeconds <= 0 {
		cfg.MaxPollSeconds = 600
	}
	if cfg.MaxAttemptsPoll <= 0 {
		cfg.MaxAttemptsPoll = 20
	}
	if cfg.MaxAttemptsSubmit <= 0 {
		cfg.MaxAttemptsSubmit = 10
	}
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = 25000
	}
	if cfg.SubmitDelaySeconds <= 0 {
		cfg.SubmitDelaySeconds = 60
	}
	if cfg.SubmitJitterSeconds <= 0 {
		cfg.SubmitJitterSeconds = 15
	}
	if cfg.PollJitterSeconds <= 0 {
		cfg.PollJitterSeconds = 15
	}
	return cfg
}

// Service is the Batch Orchestrator.
type Service struct {
	cfg Config

	batches repository.BatchRepository
	jobRepo repository.JobRepository
	jobs    *jobsvc.Service
	ledger  *ledger.Engine
	oracle  aioracle.OracleClient
	queue   queue.JobQueue
	repos   simcontext.Repositories

	// notifier is optional: a nil notifier means no outcome events are
	// emitted, which is valid for deployments that don't need C7.
	notifier *notify.Gateway

	now    func() time.Time
	jitter func(maxSeconds int) time.Duration
	log    zerolog.Logger
}

func New(
	cfg Config,
	batches repository.BatchRepository,
	jobRepo repository.JobRepository,
	jobs *jobsvc.Service,
	ledgerEngine *ledger.Engine,
	oracle aioracle.OracleClient,
	q queue.JobQueue,
	repos simcontext.Repositories,
	notifier *notify.Gateway,
	log zerolog.Logger,
) *Service {
	return &Service{
		cfg: defaultedConfig(cfg), batches: batches, jobRepo: jobRepo, jobs: jobs,
		ledger: ledgerEngine, oracle: oracle, queue: q, repos: repos, notifier: notifier,
		now: time.Now, jitter: uniformJitter, log: log,
	}
}

// WithClock returns a copy of s stamping batch timestamps with now, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// randomSource honors AI_RANDOM_EVENT_SAMPLING: off means every simulation
// context built through this service treats RandomEventChancePercent as
// unreachable, regardless of the outcome's configured chance.
func (s *Service) randomSource() simcontext.RandomSource {
	if s.cfg.RandomEventSampling {
		return simcontext.DefaultRandomSource
	}
	return simcontext.DisabledRandomSource
}

// WithJitter returns a copy of s using jitter instead of the default
// uniform random source, for deterministic tests.
func (s *Service) WithJitter(jitter func(maxSeconds int) time.Duration) *Service {
	clone := *s
	clone.jitter = jitter
	return &clone
}

func uniformJitter(maxSeconds int) time.Duration {
	if maxSeconds <= 0 {
		return 0
	}
	return time.Duration(rand.Intn(maxSeconds+1)) * time.Second
}

// jsonRoundTrip copies src into a plain map via JSON marshal/unmarshal, the
// representation domain.Job.OpenAIRequest and aioracle.BatchLine.Body both
// want (ordinary JSON values, not Go structs, so a stored job survives the
// storage layer's JSONB column with no custom codec).
func jsonRoundTrip(src any) (map[string]any, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func newBatchID() domain.BatchID { return domain.BatchID(uuid.New()) }

func secondsDuration(n int) time.Duration { return time.Duration(n) * time.Second }

package batchsvc

import (
	"context"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/simcontext"
)

// FanOut downloads a completed batch's output file and applies each line
// to its job, per §4.5's fan-out step. A line whose job is already terminal
// is dropped for idempotency (a batch output line can be fanned out more
// than once if a worker process restarts mid-way).
func (s *Service) FanOut(ctx context.Context, batch domain.Batch) error {
	lines, err := s.oracle.DownloadBatchOutput(ctx, batch.OutputFileID)
	if err != nil {
		return simerrors.OracleTransient(batch.PollAttempts, err)
	}

	byCustomID := make(map[string]aioracle.BatchResultLine, len(lines))
	for _, line := range lines {
		byCustomID[line.CustomID] = line
	}

	jobs, err := s.jobRepo.ListJobsByBatch(ctx, batch.ID)
	if err != nil {
		return simerrors.Internal("listing jobs for batch fan-out", err)
	}

	for _, job := range jobs {
		if job.State.IsTerminal() {
			continue
		}
		line, ok := byCustomID[job.ID.String()]
		if !ok {
			if _, err := s.jobs.Fail(ctx, job, simerrors.KindOracleContent, "no batch output line for job"); err != nil {
				s.log.Error().Err(err).Str("job", job.ID.String()).Msg("failing job with missing output line failed")
			}
			continue
		}
		s.applyLine(ctx, job, line)
	}

	return nil
}

func (s *Service) applyLine(ctx context.Context, job domain.Job, line aioracle.BatchResultLine) {
	if line.Error != "" || line.StatusCode >= 400 {
		kind := simerrors.KindOraclePermanent
		if line.StatusCode == 429 || line.StatusCode >= 500 {
			kind = simerrors.KindOracleTransient
		}
		message := line.Error
		if message == "" {
			message = "batch line returned an error status"
		}
		if _, err := s.jobs.Fail(ctx, job, kind, message); err != nil {
			s.log.Error().Err(err).Str("job", job.ID.String()).Msg("failing job from batch error line failed")
		}
		return
	}

	simCtx, err := simcontext.Build(ctx, job, s.repos, s.randomSource())
	if err != nil {
		s.log.Error().Err(err).Str("job", job.ID.String()).Msg("building simulation context for fan-out failed")
		return
	}

	raw, err := aioracle.Parse(line.Body)
	if err != nil {
		s.failFromError(ctx, job, err)
		return
	}

	aiMeta := domain.AIMetadata{Model: s.cfg.Model, RunID: job.ID.String(), GeneratedAt: s.now()}
	result, err := aioracle.Validate(raw, simCtx, job.ExpectedCashBefore.Decimal(), aiMeta, job.CalculationContextSnapshot)
	if err != nil {
		s.failFromError(ctx, job, err)
		return
	}

	var entryID *domain.LedgerEntryID
	if !job.DryRun {
		entry, err := s.ledger.Append(ctx, result.LedgerInput)
		if err != nil {
			s.failFromError(ctx, job, err)
			return
		}
		entryID = &entry.ID

		if s.notifier != nil {
			if err := s.notifier.NotifyLedgerEntry(ctx, entry); err != nil {
				s.log.Warn().Err(err).Str("job", job.ID.String()).Str("entryId", entry.ID.String()).Msg("emitting outcome notification failed")
			}
		}
	}

	if _, err := s.jobs.Complete(ctx, job, entryID); err != nil {
		s.log.Error().Err(err).Str("job", job.ID.String()).Msg("completing job from batch fan-out failed")
	}
}

func (s *Service) failFromError(ctx context.Context, job domain.Job, err error) {
	if se, ok := simerrors.As(err); ok {
		if _, ferr := s.jobs.Fail(ctx, job, se.Kind, se.Message); ferr != nil {
			s.log.Error().Err(ferr).Str("job", job.ID.String()).Msg("failing job failed")
		}
		return
	}
	if _, ferr := s.jobs.Fail(ctx, job, simerrors.KindInternal, err.Error()); ferr != nil {
		s.log.Error().Err(ferr).Str("job", job.ID.String()).Msg("failing job failed")
	}
}

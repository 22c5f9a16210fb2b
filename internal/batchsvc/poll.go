package batchsvc

import (
	"context"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/queue"
)

// oracleToBatchState translates the oracle's own reported status string
// into our closed domain.BatchState enum (§4.5).
var oracleToBatchState = map[string]domain.BatchState{
	"validating":  domain.BatchInProgress,
	"in_progress": domain.BatchInProgress,
	"finalizing":  domain.BatchFinalizing,
	"completed":   domain.BatchCompleted,
	"failed":      domain.BatchFailed,
	"expired":     domain.BatchExpired,
	"cancelling":  domain.BatchFinalizing,
	"cancelled":   domain.BatchCancelled,
}

// Poll implements §4.5's poll phase for one batch: retrieve the oracle's
// current status, persist it, and either re-schedule the next poll or, on a
// terminal outcome, fan results back to the jobs/ledger (completed) or fail
// every enclosed job (failed/expired/cancelled).
func (s *Service) Poll(ctx context.Context, batchID domain.BatchID) (domain.Batch, error) {
	batch, err := s.batches.GetBatch(ctx, batchID)
	if err != nil {
		return domain.Batch{}, simerrors.Internal("loading batch for poll", err)
	}
	if batch.State.IsTerminal() {
		return batch, nil
	}

	batch.PollAttempts++
	if batch.PollAttempts > s.cfg.MaxAttemptsPoll {
		return s.failBatch(ctx, batch, simerrors.KindOracleTransient, "poll attempts exhausted")
	}

	status, err := s.oracle.RetrieveBatch(ctx, batch.OpenAIBatchID)
	if err != nil {
		if uerr := s.batches.UpdateBatch(ctx, batch); uerr != nil {
			s.log.Error().Err(uerr).Str("batch", batch.ID.String()).Msg("persisting poll attempt count failed")
		}
		s.reschedulePoll(ctx, batch)
		return domain.Batch{}, simerrors.OracleTransient(batch.PollAttempts, err)
	}

	next, ok := oracleToBatchState[status.Status]
	if !ok {
		next = domain.BatchInProgress
	}
	batch.State = next
	batch.OutputFileID = status.OutputFileID

	if !batch.State.IsTerminal() {
		if err := s.batches.UpdateBatch(ctx, batch); err != nil {
			return domain.Batch{}, simerrors.Internal("persisting batch poll result", err)
		}
		s.reschedulePoll(ctx, batch)
		return batch, nil
	}

	now := s.now()
	batch.FinalizedAt = &now

	if batch.State == domain.BatchCompleted {
		if err := s.batches.UpdateBatch(ctx, batch); err != nil {
			return domain.Batch{}, simerrors.Internal("persisting completed batch", err)
		}
		if err := s.FanOut(ctx, batch); err != nil {
			return domain.Batch{}, err
		}
		s.log.Info().Str("batch", batch.ID.String()).Msg("batch completed")
		return batch, nil
	}

	return s.failBatch(ctx, batch, simerrors.KindOracleTransient, "batch ended in terminal non-completed state: "+string(batch.State))
}

// failBatch marks batch failed and every one of its still-running jobs
// failed with the given kind, per §8 scenario 5.
func (s *Service) failBatch(ctx context.Context, batch domain.Batch, kind simerrors.Kind, message string) (domain.Batch, error) {
	now := s.now()
	batch.State = domain.BatchFailed
	batch.FinalizedAt = &now
	if err := s.batches.UpdateBatch(ctx, batch); err != nil {
		return domain.Batch{}, simerrors.Internal("persisting failed batch", err)
	}

	jobs, err := s.jobRepo.ListJobsByBatch(ctx, batch.ID)
	if err == nil {
		for _, job := range jobs {
			if job.State.IsTerminal() {
				continue
			}
			if _, ferr := s.jobs.Fail(ctx, job, kind, message); ferr != nil {
				s.log.Error().Err(ferr).Str("job", job.ID.String()).Msg("failing job after batch failure failed")
			}
		}
	}

	s.log.Warn().Str("batch", batch.ID.String()).Str("reason", message).Msg("batch failed")
	return batch, nil
}

func (s *Service) reschedulePoll(ctx context.Context, batch domain.Batch) {
	delay := batch.NextPollDelay(s.cfg.PollSeconds, s.cfg.FinalizingSeconds, s.cfg.MaxPollSeconds) + s.jitter(s.cfg.PollJitterSeconds)
	msg := queue.BatchMessage{Action: queue.BatchActionPoll, BatchID: batch.ID.String(), OracleBatchID: batch.OpenAIBatchID}
	if err := s.queue.EnqueueBatchDelayed(ctx, msg, delay); err != nil {
		s.log.Error().Err(err).Str("batch", batch.ID.String()).Msg("scheduling next poll failed")
	}
}

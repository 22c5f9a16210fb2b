package batchsvc

import (
	"context"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/queue"
	"github.com/coursesim/simcore/internal/simcontext"
)

// Submit implements §4.5's submit phase: fetch every pending job for
// (scenario), build each one's oracle request via C2, persist the request
// and snapshot onto the job, pack a batch input file, upload and submit it,
// enclose every included job in the new batch, and schedule the first poll.
func (s *Service) Submit(ctx context.Context, classroomID domain.ClassroomID, scenarioID domain.ScenarioID) (domain.Batch, error) {
	pending, err := s.jobRepo.ListPendingJobs(ctx, scenarioID)
	if err != nil {
		return domain.Batch{}, simerrors.Internal("listing pending jobs for batch submission", err)
	}
	if len(pending) == 0 {
		return domain.Batch{}, simerrors.Validation("no pending jobs to submit")
	}

	batch := domain.Batch{
		ID: newBatchID(), ClassroomID: classroomID, ScenarioID: scenarioID,
		State: domain.BatchCreated, JobCount: len(pending), CreatedAt: s.now(),
	}
	if err := s.batches.CreateBatch(ctx, batch); err != nil {
		return domain.Batch{}, simerrors.Internal("persisting new batch", err)
	}

	lines := make([]aioracle.BatchLine, 0, len(pending))
	enclosed := make([]domain.Job, 0, len(pending))
	for _, job := range pending {
		simCtx, err := simcontext.Build(ctx, job, s.repos, s.randomSource())
		if err != nil {
			return domain.Batch{}, err
		}

		messages, err := aioracle.BuildMessages(simCtx)
		if err != nil {
			return domain.Batch{}, simerrors.OracleContent("building batch request for job "+job.ID.String(), err)
		}
		messages = aioracle.Harden(messages, s.cfg.MaxMessageChars)
		req := aioracle.Request{Model: s.cfg.Model, Messages: messages}

		reqAsMap, err := jsonRoundTrip(req)
		if err != nil {
			return domain.Batch{}, simerrors.Internal("encoding oracle request for audit", err)
		}
		job, err = s.jobs.AttachRequest(ctx, job, reqAsMap)
		if err != nil {
			return domain.Batch{}, err
		}

		lines = append(lines, aioracle.BatchLine{
			CustomID: job.ID.String(), Method: "POST", URL: "/v1/chat/completions", Body: req,
		})
		enclosed = append(enclosed, job)
	}

	inputFileID, err := s.oracle.UploadBatchFile(ctx, lines)
	if err != nil {
		return domain.Batch{}, simerrors.OracleTransient(batch.SubmitAttempts, err)
	}
	oracleBatchID, err := s.oracle.CreateBatch(ctx, inputFileID)
	if err != nil {
		return domain.Batch{}, simerrors.OracleTransient(batch.SubmitAttempts, err)
	}

	now := s.now()
	batch.InputFileID = inputFileID
	batch.OpenAIBatchID = oracleBatchID
	batch.State = domain.BatchSubmitted
	batch.SubmittedAt = &now
	batch.SubmitAttempts++
	if err := s.batches.UpdateBatch(ctx, batch); err != nil {
		return domain.Batch{}, simerrors.Internal("persisting submitted batch", err)
	}

	for _, job := range enclosed {
		enclosure := domain.BatchEnclosure{BatchID: batch.ID, InputFileID: inputFileID, SubmittedAt: &now}
		job, err := s.jobs.EncloseInBatch(ctx, job, enclosure)
		if err != nil {
			s.log.Error().Err(err).Str("job", job.ID.String()).Msg("enclosing job in batch failed")
			continue
		}
		if _, ok, err := s.jobs.Claim(ctx, job.ID); err != nil || !ok {
			s.log.Error().Err(err).Str("job", job.ID.String()).Msg("claiming enclosed job failed")
		}
	}

	delay := s.jitter(s.cfg.SubmitJitterSeconds)
	if err := s.queue.EnqueueBatchDelayed(ctx, queue.BatchMessage{
		Action: queue.BatchActionPoll, BatchID: batch.ID.String(), OracleBatchID: oracleBatchID,
	}, secondsDuration(s.cfg.SubmitDelaySeconds)+delay); err != nil {
		s.log.Error().Err(err).Str("batch", batch.ID.String()).Msg("scheduling first poll failed")
	}

	s.log.Info().Str("batch", batch.ID.String()).Int("jobs", len(pending)).Msg("batch submitted")
	return batch, nil
}

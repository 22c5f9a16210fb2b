package batchsvc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coursesim/simcore/internal/queue"
)

// Run drains the simulation-batch topic until ctx is cancelled, dispatching
// each message to Submit or Poll by its Action (§4.5, §6). Poll already
// fans a batch out to the ledger itself once the oracle reports a terminal
// state, so this loop's only job is routing.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := s.queue.DequeueBatch(ctx, 5*time.Second)
		if err != nil {
			s.log.Error().Err(err).Msg("dequeue batch message failed")
			continue
		}
		if msg == nil {
			continue
		}

		s.dispatch(ctx, *msg)
	}
}

func (s *Service) dispatch(ctx context.Context, msg queue.BatchMessage) {
	switch msg.Action {
	case queue.BatchActionSubmit:
		classroomID, err := uuid.Parse(msg.ClassroomID)
		if err != nil {
			s.log.Error().Err(err).Str("classroomId", msg.ClassroomID).Msg("malformed classroom id on batch queue")
			return
		}
		scenarioID, err := uuid.Parse(msg.ScenarioID)
		if err != nil {
			s.log.Error().Err(err).Str("scenarioId", msg.ScenarioID).Msg("malformed scenario id on batch queue")
			return
		}
		if _, err := s.Submit(ctx, classroomID, scenarioID); err != nil {
			s.log.Error().Err(err).Str("scenarioId", msg.ScenarioID).Msg("batch submit failed")
		}

	case queue.BatchActionPoll:
		batchID, err := uuid.Parse(msg.BatchID)
		if err != nil {
			s.log.Error().Err(err).Str("batchId", msg.BatchID).Msg("malformed batch id on batch queue")
			return
		}
		if _, err := s.Poll(ctx, batchID); err != nil {
			s.log.Error().Err(err).Str("batchId", msg.BatchID).Msg("batch poll failed")
		}

	default:
		s.log.Warn().Str("action", string(msg.Action)).Msg("unknown batch message action")
	}
}

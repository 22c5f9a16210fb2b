package notify

import (
	"context"

	"github.com/coursesim/simcore/internal/queue"
)

// QueueSink is the production NotificationSink: it publishes onto the
// notifications topic via the same JobQueue/Redis abstraction the rest of
// the simulation core uses for the direct and batch topics.
type QueueSink struct {
	queue queue.JobQueue
}

func NewQueueSink(q queue.JobQueue) *QueueSink {
	return &QueueSink{queue: q}
}

func (s *QueueSink) Notify(ctx context.Context, event Event) error {
	return s.queue.PublishNotification(ctx, queue.NotificationMessage{
		EventKind:  event.EventKind,
		EntryID:    event.EntryID,
		ScenarioID: event.ScenarioID,
		UserID:     event.UserID,
		NetProfit:  event.NetProfit,
	})
}

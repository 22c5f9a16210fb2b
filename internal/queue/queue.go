// Package queue defines the narrow JobQueue capability interface (§9) the
// simulation core depends on for its three topics (§6): simulation-direct,
// simulation-batch, and notifications. A Redis-backed implementation lives
// in internal/infrastructure/queue.
package queue

import (
	"context"
	"time"
)

// DirectJobMessage is the payload on the simulation-direct topic.
type DirectJobMessage struct {
	JobID string `json:"jobId"`
}

// BatchAction distinguishes the two message shapes carried on the
// simulation-batch topic.
type BatchAction string

const (
	BatchActionSubmit BatchAction = "submit"
	BatchActionPoll   BatchAction = "poll"
)

// BatchMessage is the payload on the simulation-batch topic. Submit
// messages carry ScenarioID/ClassroomID; poll messages carry
// BatchID/OracleBatchID.
type BatchMessage struct {
	Action        BatchAction `json:"action"`
	ScenarioID    string      `json:"scenarioId,omitempty"`
	ClassroomID   string      `json:"classroomId,omitempty"`
	BatchID       string      `json:"batchId,omitempty"`
	OracleBatchID string      `json:"oracleBatchId,omitempty"`
}

// NotificationMessage is the payload on the notifications topic (§6, C7).
type NotificationMessage struct {
	EventKind  string `json:"eventKind"`
	EntryID    string `json:"entryId"`
	ScenarioID string `json:"scenarioId"`
	UserID     string `json:"userId"`
	NetProfit  string `json:"netProfit"`
}

// JobQueue is the narrow interface the core depends on for all three
// topics. Direct jobs are consumed one at a time; batch poll messages
// support delayed delivery so the poller can honor §5's jittered cadence.
type JobQueue interface {
	EnqueueDirect(ctx context.Context, msg DirectJobMessage) error
	// EnqueueDirectDelayed schedules msg for delivery no earlier than after
	// elapses, backing the direct worker's transient-error backoff (§5, §7).
	EnqueueDirectDelayed(ctx context.Context, msg DirectJobMessage, after time.Duration) error
	DequeueDirect(ctx context.Context, timeout time.Duration) (*DirectJobMessage, error)

	EnqueueBatch(ctx context.Context, msg BatchMessage) error
	// EnqueueBatchDelayed schedules msg for delivery no earlier than after
	// elapses, backing the batch poll cadence in §5.
	EnqueueBatchDelayed(ctx context.Context, msg BatchMessage, after time.Duration) error
	DequeueBatch(ctx context.Context, timeout time.Duration) (*BatchMessage, error)

	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

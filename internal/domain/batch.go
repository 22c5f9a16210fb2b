package domain

import "time"

// BatchState mirrors the oracle's own batch lifecycle (§4.5):
// created → submitted → in_progress → finalizing → (completed | failed |
// expired | cancelled).
type BatchState string

const (
	BatchCreated    BatchState = "created"
	BatchSubmitted  BatchState = "submitted"
	BatchInProgress BatchState = "in_progress"
	BatchFinalizing BatchState = "finalizing"
	BatchCompleted  BatchState = "completed"
	BatchFailed     BatchState = "failed"
	BatchExpired    BatchState = "expired"
	BatchCancelled  BatchState = "cancelled"
)

// IsTerminal reports whether s is one of the batch's four terminal states.
func (s BatchState) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchFailed, BatchExpired, BatchCancelled:
		return true
	default:
		return false
	}
}

// Batch is a group of jobs submitted together to the oracle's asynchronous
// bulk endpoint (§4.5).
type Batch struct {
	ID          BatchID     `json:"id"`
	ClassroomID ClassroomID `json:"classroomId"`
	ScenarioID  ScenarioID  `json:"scenarioId"`

	OpenAIBatchID string `json:"openaiBatchId"`
	InputFileID   string `json:"inputFileId"`
	OutputFileID  string `json:"outputFileId,omitempty"`

	State    BatchState `json:"status"`
	JobCount int        `json:"jobCount"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`

	// PollAttempts counts polls; Poll fails the batch once it exceeds the
	// configured poll cap (20 by default). SubmitAttempts counts successful
	// submissions only: Submit makes a single attempt and does not consult
	// the submit cap.
	PollAttempts   int `json:"pollAttempts"`
	SubmitAttempts int `json:"submitAttempts"`

	CreatedAt time.Time `json:"createdAt"`
}

// NextPollDelay implements §5's batch poll cadence: 120s default, 60s while
// finalizing, capped at 600s, each with uniform jitter handled by the
// caller (internal/batchsvc owns the jitter source so it can be tested
// deterministically).
func (b Batch) NextPollDelay(defaultSeconds, finalizingSeconds, maxSeconds int) time.Duration {
	seconds := defaultSeconds
	if b.State == BatchFinalizing {
		seconds = finalizingSeconds
	}
	if seconds > maxSeconds {
		seconds = maxSeconds
	}
	return time.Duration(seconds) * time.Second
}

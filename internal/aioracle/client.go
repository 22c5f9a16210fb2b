package aioracle

import "context"

// Request is the fully-hardened, schema-constrained payload for a single
// direct oracle call (§6's oracle contract).
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// BatchLine is one line of a batch input file: {custom_id, method, url, body}.
type BatchLine struct {
	CustomID string  `json:"custom_id"`
	Method   string  `json:"method"`
	URL      string  `json:"url"`
	Body     Request `json:"body"`
}

// BatchResultLine is one line of a batch output file.
type BatchResultLine struct {
	CustomID   string
	StatusCode int
	Body       string
	Error      string
}

// BatchStatus mirrors the oracle's own reported batch state, independent of
// domain.BatchState so the batch-poller owns the translation between them.
type BatchStatus struct {
	OracleBatchID string
	Status        string
	OutputFileID  string
}

// OracleClient is the narrow capability interface the simulation core
// depends on for both execution paths (§9: "polymorphism over
// capabilities, not inheritance"). Concrete implementations live in
// internal/infrastructure/aiclient.
type OracleClient interface {
	// CreateChatCompletion performs one direct, synchronous call (C4).
	CreateChatCompletion(ctx context.Context, req Request) (string, error)

	// UploadBatchFile uploads newline-delimited JSON batch lines and
	// returns the oracle's file id (C5 submit phase).
	UploadBatchFile(ctx context.Context, lines []BatchLine) (fileID string, err error)
	// CreateBatch submits a batch referencing an uploaded file, returning
	// the oracle's batch id.
	CreateBatch(ctx context.Context, inputFileID string) (oracleBatchID string, err error)
	// RetrieveBatch polls the oracle for the current status of a batch.
	RetrieveBatch(ctx context.Context, oracleBatchID string) (BatchStatus, error)
	// DownloadBatchOutput fetches and parses a completed batch's output
	// file into its result lines.
	DownloadBatchOutput(ctx context.Context, outputFileID string) ([]BatchResultLine, error)
}

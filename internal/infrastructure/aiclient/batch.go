package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coursesim/simcore/internal/aioracle"
)

// UploadBatchFile packs lines into newline-delimited JSON and uploads it
// for the batch-submit phase (C5). aioracle.BatchLine's own json tags
// already match the oracle's batch request line format, so each line
// marshals directly with no intermediate wire type.
func (c *Client) UploadBatchFile(ctx context.Context, lines []aioracle.BatchLine) (string, error) {
	var buf bytes.Buffer
	for _, line := range lines {
		raw, err := json.Marshal(line)
		if err != nil {
			return "", fmt.Errorf("marshal batch line %s: %w", line.CustomID, err)
		}
		buf.Write(raw)
		buf.WriteByte('\n')
	}

	var file openai.File
	err := c.breaker.execute(func() error {
		var callErr error
		file, callErr = c.sdk.CreateFileBytes(ctx, openai.FileBytesRequest{
			Name:    "batch-input.jsonl",
			Bytes:   buf.Bytes(),
			Purpose: openai.PurposeBatch,
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("upload batch input file: %w", err)
	}
	return file.ID, nil
}

// CreateBatch submits a batch job against an already-uploaded input file
// (C5 submit phase), using the chat-completions endpoint and the oracle's
// standard 24-hour completion window.
func (c *Client) CreateBatch(ctx context.Context, inputFileID string) (string, error) {
	var batch openai.Batch
	err := c.breaker.execute(func() error {
		var callErr error
		batch, callErr = c.sdk.CreateBatch(ctx, openai.CreateBatchRequest{
			InputFileID:      inputFileID,
			Endpoint:         openai.BatchEndpointChatCompletions,
			CompletionWindow: "24h",
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("create batch for file %s: %w", inputFileID, err)
	}
	return batch.ID, nil
}

// RetrieveBatch polls the oracle for a batch's current status (C5 poll
// phase). The circuit breaker does not wrap polling: a transient failure
// here is handled by Batch.NextPollDelay's own backoff, not by tripping the
// same breaker the submit/direct paths share.
func (c *Client) RetrieveBatch(ctx context.Context, oracleBatchID string) (aioracle.BatchStatus, error) {
	batch, err := c.sdk.RetrieveBatch(ctx, oracleBatchID)
	if err != nil {
		return aioracle.BatchStatus{}, fmt.Errorf("retrieve batch %s: %w", oracleBatchID, err)
	}

	status := aioracle.BatchStatus{
		OracleBatchID: batch.ID,
		Status:        string(batch.Status),
	}
	if batch.OutputFileID != nil {
		status.OutputFileID = *batch.OutputFileID
	}
	return status, nil
}

// batchOutputLine is one line of a completed batch's output file: a
// custom_id plus either a nested chat-completion response or an error.
type batchOutputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int                           `json:"status_code"`
		Body       openai.ChatCompletionResponse `json:"body"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DownloadBatchOutput fetches a completed batch's output file and parses
// each JSONL line into a result the batch orchestrator can match back to a
// job by custom_id (C5 fan-out phase). BatchResultLine.Body carries just
// the assistant message content — the same shape aioracle.Parse expects
// from the direct path — not the full chat-completion response envelope.
func (c *Client) DownloadBatchOutput(ctx context.Context, outputFileID string) ([]aioracle.BatchResultLine, error) {
	content, err := c.sdk.GetFileContent(ctx, outputFileID)
	if err != nil {
		return nil, fmt.Errorf("download batch output file %s: %w", outputFileID, err)
	}

	var results []aioracle.BatchResultLine
	for _, raw := range bytes.Split(content, []byte("\n")) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		var line batchOutputLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("parse batch output line: %w", err)
		}

		result := aioracle.BatchResultLine{CustomID: line.CustomID}
		switch {
		case line.Response != nil:
			result.StatusCode = line.Response.StatusCode
			if len(line.Response.Body.Choices) > 0 {
				result.Body = line.Response.Body.Choices[0].Message.Content
			} else {
				result.Error = "batch response contained no choices"
			}
		case line.Error != nil:
			result.Error = line.Error.Message
		}
		results = append(results, result)
	}
	return results, nil
}

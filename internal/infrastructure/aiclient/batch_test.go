package aiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursesim/simcore/internal/aioracle"
)

func TestClient_UploadBatchFile_ReturnsFileID(t *testing.T) {
	var uploadedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		raw, err := io.ReadAll(file)
		require.NoError(t, err)
		uploadedBody = string(raw)

		json.NewEncoder(w).Encode(map[string]any{"id": "file-1", "object": "file", "purpose": "batch"})
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	fileID, err := client.UploadBatchFile(context.Background(), []aioracle.BatchLine{
		{CustomID: "job-1", Method: "POST", URL: "/v1/chat/completions", Body: aioracle.Request{Model: "gpt-4o"}},
		{CustomID: "job-2", Method: "POST", URL: "/v1/chat/completions", Body: aioracle.Request{Model: "gpt-4o"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "file-1", fileID)
	assert.Equal(t, 2, strings.Count(uploadedBody, "custom_id"))
}

func TestClient_CreateBatch_ReturnsOracleBatchID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "file-1", body["input_file_id"])

		json.NewEncoder(w).Encode(map[string]any{"id": "batch-1", "status": "validating"})
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	batchID, err := client.CreateBatch(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", batchID)
}

func TestClient_RetrieveBatch_TranslatesStatusAndOutputFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "batch-1",
			"status":         "completed",
			"output_file_id": "file-out",
		})
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	status, err := client.RetrieveBatch(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", status.OracleBatchID)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, "file-out", status.OutputFileID)
}

func TestClient_DownloadBatchOutput_ExtractsMessageContentPerLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`{"custom_id":"job-1","response":{"status_code":200,"body":{"choices":[{"message":{"content":"{\"sales\":5}"}}]}}}`,
			`{"custom_id":"job-2","error":{"message":"rate limit exceeded"}}`,
		}
		w.Write([]byte(strings.Join(lines, "\n")))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	results, err := client.DownloadBatchOutput(context.Background(), "file-out")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "job-1", results[0].CustomID)
	assert.Equal(t, `{"sales":5}`, results[0].Body)
	assert.Equal(t, 200, results[0].StatusCode)

	assert.Equal(t, "job-2", results[1].CustomID)
	assert.Equal(t, "rate limit exceeded", results[1].Error)
}

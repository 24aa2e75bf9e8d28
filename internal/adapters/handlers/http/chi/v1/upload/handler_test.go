package upload_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	uploadhandler "clipstream/internal/adapters/handlers/http/chi/v1/upload"
	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"
	"clipstream/internal/core/service/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, orchestrator *upload.MockOrchestrator) (*httptest.Server, string) {
	t.Helper()
	intakeDir := t.TempDir()
	handler := uploadhandler.NewUploadHandlerV1(orchestrator, intakeDir, testLogger())
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, intakeDir
}

// multipartUpload builds the form the composer screen submits.
func multipartUpload(t *testing.T, fields map[string]string, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postUpload(t *testing.T, srv *httptest.Server, fields map[string]string, filename string) *http.Response {
	t.Helper()
	body, contentType := multipartUpload(t, fields, filename, []byte("clip-bytes"))
	resp, err := http.Post(srv.URL+"/", contentType, body)
	require.NoError(t, err)
	return resp
}

func jobStatus(t *testing.T, srv *httptest.Server, jobID string) uploadhandler.V1UploadStatusResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/" + jobID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status uploadhandler.V1UploadStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestCreateUploadV1_CompletesJob(t *testing.T) {
	// Arrange
	var stagedData []byte
	orchestrator := upload.NewMockOrchestrator()
	orchestrator.On("UploadVideo", mock.Anything, mock.MatchedBy(func(req port.UploadRequest) bool {
		return req.UserID == "user-1" && req.Caption == "my clip" && req.Category == "sports"
	}), mock.Anything).
		Run(func(args mock.Arguments) {
			// The staged payload must exist while the pipeline runs.
			req := args.Get(1).(port.UploadRequest)
			stagedData, _ = os.ReadFile(req.SourcePath)
			onProgress := args.Get(2).(func(int))
			onProgress(30)
			onProgress(100)
		}).
		Return(&port.UploadOutcome{
			VideoURL:     "https://cdn/video.mp4",
			ThumbnailURL: "https://cdn/thumb.jpg",
			SizeBytes:    2048,
			Caption:      "my clip",
			Category:     "sports",
		}, nil)

	srv, intakeDir := newServer(t, orchestrator)

	// Act
	resp := postUpload(t, srv, map[string]string{
		"user_id":  "user-1",
		"caption":  "my clip",
		"category": "sports",
	}, "clip.mp4")
	defer resp.Body.Close()

	// Assert: accepted with a pollable job id.
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var created uploadhandler.V1CreateUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.JobID)

	require.Eventually(t, func() bool {
		return jobStatus(t, srv, created.JobID).Status == uploadhandler.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	status := jobStatus(t, srv, created.JobID)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.Outcome)
	assert.Equal(t, "https://cdn/video.mp4", status.Outcome.VideoURL)

	// The orchestrator saw the staged payload, and the staged file is
	// cleaned up once the job finishes.
	assert.Equal(t, []byte("clip-bytes"), stagedData)
	require.Eventually(t, func() bool {
		leftovers, err := filepath.Glob(filepath.Join(intakeDir, "*"))
		return err == nil && len(leftovers) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCreateUploadV1_FailedJobResetsProgress(t *testing.T) {
	// Arrange
	orchestrator := upload.NewMockOrchestrator()
	orchestrator.On("UploadVideo", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(2).(func(int))(40)
		}).
		Return(nil, domain.ErrTransferFailed)

	srv, intakeDir := newServer(t, orchestrator)

	// Act
	resp := postUpload(t, srv, map[string]string{
		"user_id":  "user-1",
		"category": "sports",
	}, "clip.mp4")
	defer resp.Body.Close()

	var created uploadhandler.V1CreateUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	require.Eventually(t, func() bool {
		return jobStatus(t, srv, created.JobID).Status == uploadhandler.JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	// Assert: failure wipes partial progress for the polling UI, and the
	// staged source does not linger in the intake directory.
	status := jobStatus(t, srv, created.JobID)
	assert.Zero(t, status.Progress)
	assert.Contains(t, status.Error, domain.ErrTransferFailed.Error())
	assert.Nil(t, status.Outcome)
	require.Eventually(t, func() bool {
		leftovers, err := filepath.Glob(filepath.Join(intakeDir, "*"))
		return err == nil && len(leftovers) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCreateUploadV1_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{name: "no user id", fields: map[string]string{"category": "sports"}, file: "clip.mp4"},
		{name: "no category", fields: map[string]string{"user_id": "user-1"}, file: "clip.mp4"},
		{name: "no file", fields: map[string]string{"user_id": "user-1", "category": "sports"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			orchestrator := upload.NewMockOrchestrator()
			srv, _ := newServer(t, orchestrator)

			// Act
			resp := postUpload(t, srv, tt.fields, tt.file)
			resp.Body.Close()

			// Assert
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			orchestrator.AssertNotCalled(t, "UploadVideo", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGetUploadV1_UnknownJob(t *testing.T) {
	// Arrange
	srv, _ := newServer(t, upload.NewMockOrchestrator())

	// Act
	resp, err := http.Get(srv.URL + "/no-such-job")

	// Assert
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"clipstream/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadMemory = 32 << 20 // 32MB buffered, rest spills to disk

// V1CreateUploadResponse is the response to a queued upload
type V1CreateUploadResponse struct {
	JobID string `json:"job_id"`
}

// V1UploadStatusResponse reports a background job's progress
type V1UploadStatusResponse struct {
	JobID    string              `json:"job_id"`
	Status   JobStatus           `json:"status"`
	Progress int                 `json:"progress"`
	Outcome  *port.UploadOutcome `json:"outcome,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// CreateUploadV1 stages the multipart payload and starts the upload
// pipeline in the background.
func (h *HandlerV1) CreateUploadV1(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Error("error parsing multipart upload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := r.FormValue("user_id")
	caption := r.FormValue("caption")
	category := r.FormValue("category")
	if userID == "" || category == "" {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sourcePath, err := h.stage(file, header.Filename)
	if err != nil {
		h.logger.Error("error staging upload", "error", err)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}

	jobID := uuid.NewString()
	j := &job{ID: jobID, Status: JobStatusRunning}
	h.mu.Lock()
	h.pruneLocked()
	h.jobs[jobID] = j
	h.mu.Unlock()

	go h.run(j, port.UploadRequest{
		SourcePath: sourcePath,
		Caption:    caption,
		Category:   category,
		UserID:     userID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(V1CreateUploadResponse{JobID: jobID}); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

// GetUploadV1 returns the status of a background job.
func (h *HandlerV1) GetUploadV1(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	h.mu.Lock()
	j, ok := h.jobs[jobID]
	var resp V1UploadStatusResponse
	if ok {
		resp = V1UploadStatusResponse{
			JobID:    j.ID,
			Status:   j.Status,
			Progress: j.Progress,
			Outcome:  j.Outcome,
			Error:    j.Error,
		}
	}
	h.mu.Unlock()

	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

// stage copies the uploaded payload into the intake directory under a
// fresh name.
func (h *HandlerV1) stage(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.intakeDir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(h.intakeDir, fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], filepath.Ext(filename)))
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

// jobRetention is how long terminal jobs stay pollable before pruning.
const jobRetention = time.Hour

// run executes the orchestrator and records the terminal job state. The
// UI resets its progress display on failure, so no partial progress is
// kept. The staged source is deleted either way; it has served its
// purpose once the pipeline finishes.
func (h *HandlerV1) run(j *job, req port.UploadRequest) {
	defer func() {
		if err := os.Remove(req.SourcePath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to delete staged upload", "path", req.SourcePath, "error", err)
		}
	}()

	outcome, err := h.orchestrator.UploadVideo(context.Background(), req, func(pct int) {
		h.mu.Lock()
		j.Progress = pct
		h.mu.Unlock()
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	j.FinishedAt = time.Now()
	if err != nil {
		j.Status = JobStatusFailed
		j.Progress = 0
		j.Error = err.Error()
		h.logger.Error("upload job failed", "job_id", j.ID, "error", err)
		return
	}
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Outcome = outcome
}

// pruneLocked drops terminal jobs past the retention window so the job
// table does not grow without bound. Callers must hold h.mu.
func (h *HandlerV1) pruneLocked() {
	cutoff := time.Now().Add(-jobRetention)
	for id, j := range h.jobs {
		if j.Status != JobStatusRunning && !j.FinishedAt.IsZero() && j.FinishedAt.Before(cutoff) {
			delete(h.jobs, id)
		}
	}
}

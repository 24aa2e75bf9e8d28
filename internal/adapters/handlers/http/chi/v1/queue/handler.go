package queue

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"clipstream/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 queue routes
type HandlerV1 struct {
	scheduler port.UploadScheduler
	logger    *slog.Logger
}

// NewQueueHandlerV1 creates HandlerV1
func NewQueueHandlerV1(scheduler port.UploadScheduler, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		scheduler: scheduler,
		logger:    logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/tasks", h.ListTasksV1)
	router.Post("/pause", h.PauseV1)
	router.Post("/resume", h.ResumeV1)
	router.Delete("/tasks/{taskID}", h.CancelTaskV1)
	router.Patch("/tasks/{index}/priority", h.SetPriorityV1)

	return router
}

// V1TaskResponse is one tracked upload task
type V1TaskResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Priority  int       `json:"priority"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *HandlerV1) ListTasksV1(w http.ResponseWriter, r *http.Request) {
	tasks := h.scheduler.Tasks()

	resp := make([]V1TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, V1TaskResponse{
			ID:        t.ID,
			Kind:      string(t.Kind),
			UserID:    t.UserID,
			Priority:  t.Priority,
			Status:    string(t.Status),
			Progress:  t.Progress,
			LastError: t.LastError,
			CreatedAt: t.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

func (h *HandlerV1) PauseV1(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerV1) ResumeV1(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Resume()
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerV1) CancelTaskV1(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		http.Error(w, "missing task id", http.StatusBadRequest)
		return
	}
	h.scheduler.Cancel(taskID)
	w.WriteHeader(http.StatusNoContent)
}

// V1SetPriorityRequest is the request to reprioritize a pending task
type V1SetPriorityRequest struct {
	Priority int `json:"priority"`
}

func (h *HandlerV1) SetPriorityV1(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	var req V1SetPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.scheduler.SetPriority(index, req.Priority)
	w.WriteHeader(http.StatusNoContent)
}

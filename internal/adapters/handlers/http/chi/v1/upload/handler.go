package upload

import (
	"log/slog"
	"sync"
	"time"

	"clipstream/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// JobStatus represents the state of one background upload job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type job struct {
	ID         string
	Status     JobStatus
	Progress   int
	Outcome    *port.UploadOutcome
	Error      string
	FinishedAt time.Time
}

// HandlerV1 is the handler for v1 upload routes. It accepts the composed
// clip, stages it into the intake directory and runs the orchestrator in
// the background, tracking per-job progress for polling clients.
type HandlerV1 struct {
	orchestrator port.UploadOrchestrator
	intakeDir    string
	logger       *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// NewUploadHandlerV1 creates HandlerV1
func NewUploadHandlerV1(orchestrator port.UploadOrchestrator, intakeDir string, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		orchestrator: orchestrator,
		intakeDir:    intakeDir,
		logger:       logger,
		jobs:         make(map[string]*job),
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", h.CreateUploadV1)
	router.Get("/{jobID}", h.GetUploadV1)

	return router
}

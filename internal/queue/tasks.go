package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/boopesh07/VideoToShorts/internal/service"
	"github.com/boopesh07/VideoToShorts/log"
)

// TaskHandlers binds queue task types to service operations.
type TaskHandlers struct {
	service *service.Service
}

func NewTaskHandlers(svc *service.Service) *TaskHandlers {
	return &TaskHandlers{service: svc}
}

// HandleShortsTask runs the full generation pipeline for one queued job.
// Returning an error lets Asynq retry with backoff; the task row already
// carries the failure detail either way.
func (h *TaskHandlers) HandleShortsTask(ctx context.Context, t *asynq.Task) error {
	var payload ShortsGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log.GetLogger().Info("[Queue] Processing shorts task",
		zap.String("task_id", payload.TaskID),
		zap.String("url", payload.Request.Url))

	return h.service.ProcessTask(ctx, payload.TaskID, payload.Request)
}

// StartWorker registers the handlers and runs the Asynq server. Blocks
// until the server stops.
func (q *Queue) StartWorker(handlers *TaskHandlers) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeShortsGenerate, handlers.HandleShortsTask)
	return q.server.Run(mux)
}

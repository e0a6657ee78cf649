package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishSchedulePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ScheduleID == "" {
		return fmt.Errorf("payload has no schedule id: %w", asynq.SkipRetry)
	}
	return q.ps.Publish(ctx, payload.ScheduleID)
}

// Mux routes task types to their handlers.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishSchedule, q.HandlePublishTask)
	return mux
}

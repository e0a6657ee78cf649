package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const maxRetry = 3

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues publish tasks on asynq. The task id is the schedule id, so a
// schedule is queued at most once at a time.
type Dispatcher struct {
	client enqueuer
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, scheduleID string, delay time.Duration) error {
	payload, err := json.Marshal(PublishSchedulePayload{ScheduleID: scheduleID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishSchedule, payload)
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.TaskID(scheduleID),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("schedule already queued", "schedule", scheduleID)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("task scheduled", "schedule", scheduleID, "delay", delay)
	return nil
}

package queue

import (
	"github.com/maheshrc27/postr/internal/service"
)

type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{
		ps: ps,
	}
}

const TaskTypePublishSchedule = "schedule:publish"

type PublishSchedulePayload struct {
	ScheduleID string `json:"schedule_id"`
}

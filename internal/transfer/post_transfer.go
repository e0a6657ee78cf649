package transfer

import (
	"encoding/json"
	"time"
)

// PostInput wraps nostr event JSON. Drafts may be unsigned, imports must be signed.
type PostInput struct {
	Event json.RawMessage `json:"event"`
}

type PostFilter struct {
	Kind  *int  `query:"kind"`
	Draft *bool `query:"draft"`
	Take  int   `query:"take"`
	Skip  int   `query:"skip"`
}

type KindCount struct {
	Kind  int   `json:"kind"`
	Count int64 `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type PostStats struct {
	Posts     int64         `json:"posts"`
	Drafts    int64         `json:"drafts"`
	ByKind    []KindCount   `json:"by_kind"`
	Schedules []StatusCount `json:"schedules"`
}

type QueueInput struct {
	Name string `json:"name"`
}

type ScheduleCreation struct {
	PostID           string     `json:"post_id"`
	QueueID          *string    `json:"queue_id"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
	TriggerType      *string    `json:"trigger_type"`
	AfterScheduleID  string     `json:"after_schedule_id"`
	DelaySeconds     int        `json:"delay_seconds"`
	TriggerExpiresAt *time.Time `json:"trigger_expires_at"`
	Relays           string     `json:"relays"`
}

type ScheduleFilter struct {
	Status  string `query:"status"`
	QueueID string `query:"queue_id"`
	Take    int    `query:"take"`
	Skip    int    `query:"skip"`
}

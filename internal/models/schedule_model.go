package models

import (
	"time"
)

type Schedule struct {
	ID                 string     `db:"id" json:"id"`
	PostID             string     `db:"post_id" json:"post_id"`
	QueueID            *string    `db:"queue_id" json:"queue_id,omitempty"`
	AccountPubkey      string     `db:"account_pubkey" json:"account_pubkey"`
	UserPubkey         string     `db:"user_pubkey" json:"user_pubkey"`
	ScheduledAt        *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	TriggerType        *string    `db:"trigger_type" json:"trigger_type,omitempty"`
	TriggerDetails     *string    `db:"trigger_details" json:"trigger_details,omitempty"`
	TriggerExpiresAt   *time.Time `db:"trigger_expires_at" json:"trigger_expires_at,omitempty"`
	Relays             string     `db:"relays" json:"relays"`
	Status             string     `db:"status" json:"status"`
	PublishAttemptedAt *time.Time `db:"publish_attempted_at" json:"publish_attempted_at,omitempty"`
	PublishError       *string    `db:"publish_error" json:"publish_error,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusPublishing = "publishing"
	ScheduleStatusPublished  = "published"
	ScheduleStatusFailed     = "failed"
	ScheduleStatusCancelled  = "cancelled"
	ScheduleStatusExpired    = "expired"
)

// TriggerAfterSchedule fires once the schedule named in the trigger details publishes.
const TriggerAfterSchedule = "after_schedule"

type AfterScheduleTrigger struct {
	ScheduleID   string `json:"scheduleId"`
	DelaySeconds int    `json:"delaySeconds,omitempty"`
}

func (s *Schedule) RelayList() []string {
	return SplitRelays(s.Relays)
}

func (s *Schedule) IsTriggered() bool {
	return s.TriggerType != nil && *s.TriggerType != ""
}

package models

import (
	"time"
)

type Subscription struct {
	ID                 string    `db:"id" json:"id"`
	AccountPubkey      string    `db:"account_pubkey" json:"account_pubkey"`
	Status             string    `db:"status" json:"status"`
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end" json:"current_period_end"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// IsActive reports whether the subscription entitles the account to paid features at now.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrialing {
		return false
	}
	return now.Before(s.CurrentPeriodEnd)
}

package repository

import (
	"context"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var subscriptionTable = query.Table{
	Name: "subscriptions",
	Key:  "id",
	Columns: []string{
		"id", "account_pubkey", "status", "current_period_start", "current_period_end",
		"created_at", "updated_at",
	},
}

type SubscriptionRepository interface {
	Delegate[models.Subscription]
	FindByAccount(ctx context.Context, accountPubkey string) (*models.Subscription, bool, error)
	// UpsertByAccount keeps a single subscription row per account, replacing the
	// provider id and billing period on every change.
	UpsertByAccount(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
}

type subscriptionRepository struct {
	*delegate[models.Subscription]
}

func NewSubscriptionRepository(db DBTX) SubscriptionRepository {
	return &subscriptionRepository{newDelegate(db, mapping[models.Subscription]{
		table: subscriptionTable,
		values: func(s *models.Subscription) []any {
			return []any{s.ID, s.AccountPubkey, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CreatedAt, s.UpdatedAt}
		},
		scan: func(row rowScanner, s *models.Subscription) error {
			return row.Scan(&s.ID, &s.AccountPubkey, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
		},
		prepare: func(s *models.Subscription, t time.Time) {
			stamp(&s.CreatedAt, &s.UpdatedAt, t)
		},
	})}
}

func (r *subscriptionRepository) FindByAccount(ctx context.Context, accountPubkey string) (*models.Subscription, bool, error) {
	return r.FindFirst(ctx, query.Args{Where: query.Eq("account_pubkey", accountPubkey)})
}

func (r *subscriptionRepository) UpsertByAccount(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	return r.upsertOn(ctx, sub, []string{"account_pubkey"}, query.Set{
		"id":                   sub.ID,
		"status":               sub.Status,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
	})
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// AccountMetadataKey is the checkout metadata key carrying the account pubkey.
const AccountMetadataKey = "account_pubkey"

type SubscriptionService interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	Status(ctx context.Context, account, user string) (*transfer.BillingStatus, error)
	Revenue(ctx context.Context, account, user string) ([]transfer.RevenueLine, error)
}

type subscriptionService struct {
	cfg config.Config
	c   *repository.Client
	m   metrics.Metrics
}

func NewSubscriptionService(cfg config.Config, c *repository.Client, m metrics.Metrics) SubscriptionService {
	return &subscriptionService{
		cfg: cfg,
		c:   c,
		m:   m,
	}
}

func (s *subscriptionService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.StripeWebhookSecret == "" {
		err := errors.New("STRIPE_WEBHOOK_SECRET is not configured")
		slog.Error(err.Error())
		return err
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.StripeWebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	s.m.WebhookReceived(string(event.Type))

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return invalid("malformed subscription payload: %v", err)
		}
		return s.handleSubscription(ctx, &sub, event.Type == "customer.subscription.deleted")
	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return invalid("malformed invoice payload: %v", err)
		}
		return s.handleInvoice(ctx, &inv)
	default:
		slog.Info("unhandled stripe event", "type", event.Type)
	}
	return nil
}

func (s *subscriptionService) handleSubscription(ctx context.Context, sub *stripe.Subscription, deleted bool) error {
	account := sub.Metadata[AccountMetadataKey]
	if account == "" {
		slog.Info("stripe subscription without account metadata", "subscription", sub.ID)
		return nil
	}

	if deleted {
		// a late delete for a replaced subscription must not clobber the current one
		existing, found, err := s.c.Subscription.FindByAccount(ctx, account)
		if err != nil {
			return err
		}
		if found && existing.ID != sub.ID {
			slog.Info("ignoring delete of superseded subscription", "subscription", sub.ID, "account", account)
			return nil
		}
	}

	record := &models.Subscription{
		ID:                 sub.ID,
		AccountPubkey:      account,
		Status:             string(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	err := s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.Subscription.UpsertByAccount(ctx, record); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditSubscriptionUpdated, account, "", map[string]any{
			"subscription": sub.ID,
			"status":       record.Status,
		})
	})
	if errors.Is(err, repository.ErrInvalidReference) {
		slog.Info("stripe subscription for unknown account", "subscription", sub.ID, "account", account)
		return nil
	}
	return err
}

func (s *subscriptionService) handleInvoice(ctx context.Context, inv *stripe.Invoice) error {
	account := ""
	if inv.SubscriptionDetails != nil {
		account = inv.SubscriptionDetails.Metadata[AccountMetadataKey]
	}
	if account == "" {
		account = inv.Metadata[AccountMetadataKey]
	}
	if account == "" {
		slog.Info("stripe invoice without account metadata", "invoice", inv.ID)
		return nil
	}

	payment := &models.Payment{
		AccountPubkey:    account,
		Amount:           inv.AmountPaid,
		Currency:         string(inv.Currency),
		PaymentReference: inv.ID,
		PaymentMethod:    models.PaymentMethodStripe,
	}
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt := time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		payment.PaidAt = &paidAt
	}

	err := s.c.Transaction(ctx, func(tx *repository.Client) error {
		n, err := tx.Payment.CreateMany(ctx, []*models.Payment{payment}, true)
		if err != nil {
			return err
		}
		if n == 0 {
			slog.Info("duplicate stripe invoice ignored", "invoice", inv.ID)
			return nil
		}
		return audit(ctx, tx, models.AuditPaymentRecorded, account, "", map[string]any{
			"invoice":  inv.ID,
			"amount":   payment.Amount,
			"currency": payment.Currency,
		})
	})
	if errors.Is(err, repository.ErrInvalidReference) {
		slog.Info("stripe invoice for unknown account", "invoice", inv.ID, "account", account)
		return nil
	}
	return err
}

func (s *subscriptionService) Status(ctx context.Context, account, user string) (*transfer.BillingStatus, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	sub, found, err := s.c.Subscription.FindByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	status := &transfer.BillingStatus{Active: sub.IsActive(now())}
	if found {
		status.Subscription = sub
	}
	return status, nil
}

func (s *subscriptionService) Revenue(ctx context.Context, account, user string) ([]transfer.RevenueLine, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermViewMetrics); err != nil {
		return nil, err
	}
	groups, err := s.c.Payment.GroupBy(ctx, query.GroupBySpec{
		By:      []string{"currency"},
		Where:   query.Eq("account_pubkey", account),
		Count:   true,
		Sum:     []string{"amount"},
		OrderBy: []query.Order{query.Asc("currency")},
	})
	if err != nil {
		return nil, err
	}
	lines := make([]transfer.RevenueLine, 0, len(groups))
	for _, g := range groups {
		currency, _ := g.Keys["currency"].(string)
		line := transfer.RevenueLine{Currency: currency, Payments: g.Count}
		if sum := g.Sum["amount"]; sum != nil {
			line.Amount = *sum
		}
		lines = append(lines, line)
	}
	return lines, nil
}

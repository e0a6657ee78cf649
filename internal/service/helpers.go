package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/repository"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSubscriptionRequired = errors.New("an active subscription is required")
)

const (
	defaultTake = 50
	maxTake     = 200
)

var now = func() time.Time {
	return time.Now().UTC()
}

// Dispatcher hands a schedule to the job queue for publishing after delay.
type Dispatcher interface {
	Dispatch(ctx context.Context, scheduleID string, delay time.Duration) error
}

func invalid(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
	slog.Info(err.Error())
	return err
}

// member returns the accepted membership of user in account.
func member(ctx context.Context, c *repository.Client, account, user string) (*models.AccountUser, error) {
	au, found, err := c.AccountUser.FindMembership(ctx, account, user)
	if err != nil {
		return nil, err
	}
	if !found || au.InvitationStatus != models.InvitationAccepted {
		err = fmt.Errorf("%w: %s is not a member of %s", ErrForbidden, user, account)
		slog.Info(err.Error())
		return nil, err
	}
	return au, nil
}

func authorize(ctx context.Context, c *repository.Client, account, user string, p models.Permission) (*models.AccountUser, error) {
	au, err := member(ctx, c, account, user)
	if err != nil {
		return nil, err
	}
	if !au.Can(p) {
		err = fmt.Errorf("%w: missing %s permission", ErrForbidden, p)
		slog.Info(err.Error())
		return nil, err
	}
	return au, nil
}

// audit appends an audit row. Empty account or user are stored as NULL.
func audit(ctx context.Context, c *repository.Client, action, account, user string, details any) error {
	entry := &models.AuditLog{Action: action}
	if account != "" {
		entry.AccountPubkey = &account
	}
	if user != "" {
		entry.UserPubkey = &user
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		s := string(b)
		entry.Context = &s
	}
	if err := c.AuditLog.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// validRelays splits and validates a relay list, falling back to fallback when raw is blank.
func validRelays(raw, fallback string) (string, error) {
	relays := models.SplitRelays(raw)
	if len(relays) == 0 {
		relays = models.SplitRelays(fallback)
	}
	if len(relays) == 0 {
		return "", invalid("at least one relay is required")
	}
	for _, r := range relays {
		if !models.ValidRelayURL(r) {
			return "", invalid("relay %q must be a ws:// or wss:// url", r)
		}
	}
	return models.JoinRelays(relays), nil
}

func page(take, skip int) (int, int) {
	if take <= 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}
	if skip < 0 {
		skip = 0
	}
	return take, skip
}

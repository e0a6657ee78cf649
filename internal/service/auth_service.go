package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/repository"
)

type AuthService interface {
	// Login verifies a signed kind 27235 event issued for target and returns the user it
	// identifies. Each event is accepted once.
	Login(ctx context.Context, rawEvent string, target nostrx.Target) (*models.User, error)
}

var errAuthReplayed = errors.New("auth event was already used")

type authService struct {
	cfg  config.Config
	c    *repository.Client
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewAuthService(cfg config.Config, c *repository.Client) AuthService {
	return &authService{
		cfg:  cfg,
		c:    c,
		seen: map[string]time.Time{},
	}
}

// remember records id until it falls out of the skew window and reports whether it was
// already there.
func (s *authService) remember(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, until := range s.seen {
		if at.After(until) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = at.Add(2 * s.cfg.AuthMaxSkew)
	return false
}

func (s *authService) Login(ctx context.Context, rawEvent string, target nostrx.Target) (*models.User, error) {
	ev, err := nostrx.ParseDraft(rawEvent)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err := nostrx.VerifyAuth(ev, now(), s.cfg.AuthMaxSkew, target); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if s.remember(ev.ID, now()) {
		slog.Info(errAuthReplayed.Error(), "event", ev.ID)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, errAuthReplayed)
	}

	var user *models.User
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		u, err := tx.User.Ensure(ctx, ev.PubKey)
		if err != nil {
			return err
		}
		user = u
		return audit(ctx, tx, models.AuditUserLogin, "", ev.PubKey, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return user, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/nbd-wtf/go-nostr"
)

type AccountService interface {
	CreateAccount(ctx context.Context, user string, in transfer.AccountCreation) (*models.Account, error)
	ListForUser(ctx context.Context, user string) ([]*models.Account, error)
	Get(ctx context.Context, account, user string) (*models.Account, error)
	GetSettings(ctx context.Context, account, user string) (*models.Setting, error)
	UpdateSettings(ctx context.Context, account, user string, in transfer.SettingsUpdate) (*models.Setting, error)
}

type accountService struct {
	cfg config.Config
	c   *repository.Client
}

func NewAccountService(cfg config.Config, c *repository.Client) AccountService {
	return &accountService{
		cfg: cfg,
		c:   c,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, user string, in transfer.AccountCreation) (*models.Account, error) {
	pubkey := strings.ToLower(strings.TrimSpace(in.Pubkey))
	if !nostr.IsValidPublicKey(pubkey) {
		return nil, invalid("account pubkey must be a 64 character hex key")
	}
	if len(in.Proof) == 0 {
		return nil, invalid("proof signed by the account key is required")
	}
	proof, err := nostrx.ParseDraft(string(in.Proof))
	if err != nil {
		return nil, invalid("%v", err)
	}
	if err := nostrx.VerifyOwnership(proof, pubkey, user, now(), s.cfg.AuthMaxSkew); err != nil {
		slog.Info(err.Error(), "account", pubkey, "user", user)
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	relays, err := validRelays(in.Relays, s.cfg.DefaultRelays)
	if err != nil {
		return nil, err
	}

	account := &models.Account{Pubkey: pubkey, Name: in.Name}
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.User.Ensure(ctx, user); err != nil {
			return err
		}
		if err := tx.Account.Create(ctx, account); err != nil {
			return err
		}
		if err := tx.Setting.Create(ctx, &models.Setting{AccountPubkey: pubkey, Relays: relays}); err != nil {
			return err
		}

		owner := &models.AccountUser{
			AccountPubkey:    pubkey,
			UserPubkey:       user,
			Role:             models.RoleOwner,
			InvitationStatus: models.InvitationAccepted,
		}
		owner.GrantAll()
		if err := tx.AccountUser.Create(ctx, owner); err != nil {
			return err
		}
		if err := tx.Queue.Create(ctx, &models.Queue{AccountPubkey: pubkey, Name: models.DefaultQueueName}); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditAccountCreated, pubkey, user, map[string]any{"relays": relays})
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return account, nil
}

func (s *accountService) ListForUser(ctx context.Context, user string) ([]*models.Account, error) {
	return s.c.Account.ListForUser(ctx, user)
}

func (s *accountService) Get(ctx context.Context, account, user string) (*models.Account, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	a, found, err := s.c.Account.FindUnique(ctx, account)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, account)
	}
	return a, nil
}

func (s *accountService) GetSettings(ctx context.Context, account, user string) (*models.Setting, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	settings, found, err := s.c.Setting.FindByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: settings for %s", ErrNotFound, account)
	}
	return settings, nil
}

func (s *accountService) UpdateSettings(ctx context.Context, account, user string, in transfer.SettingsUpdate) (*models.Setting, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageCollaborators); err != nil {
		return nil, err
	}
	relays, err := validRelays(in.Relays, "")
	if err != nil {
		return nil, err
	}

	var settings *models.Setting
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		updated, err := tx.Setting.Update(ctx, account, query.Set{"relays": relays})
		if err != nil {
			return err
		}
		settings = updated
		return audit(ctx, tx, models.AuditSettingsUpdated, account, user, map[string]any{"relays": relays})
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: settings for %s", ErrNotFound, account)
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
)

type QueueService interface {
	Create(ctx context.Context, account, user, name string) (*models.Queue, error)
	Rename(ctx context.Context, account, user, id, name string) (*models.Queue, error)
	Delete(ctx context.Context, account, user, id string) error
	List(ctx context.Context, account, user string) ([]*models.Queue, error)
}

type queueService struct {
	c *repository.Client
}

func NewQueueService(c *repository.Client) QueueService {
	return &queueService{c: c}
}

func queueName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 64 {
		return "", invalid("queue name must be between 1 and 64 characters")
	}
	return name, nil
}

func (s *queueService) find(ctx context.Context, account, id string) (*models.Queue, error) {
	q, found, err := s.c.Queue.FindUnique(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found || q.AccountPubkey != account {
		return nil, fmt.Errorf("%w: queue %s", ErrNotFound, id)
	}
	return q, nil
}

func (s *queueService) Create(ctx context.Context, account, user, name string) (*models.Queue, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageQueues); err != nil {
		return nil, err
	}
	name, err := queueName(name)
	if err != nil {
		return nil, err
	}

	q := &models.Queue{AccountPubkey: account, Name: name}
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if err := tx.Queue.Create(ctx, q); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditQueueCreated, account, user, map[string]any{"queue": q.ID, "name": name})
	})
	if err != nil {
		return nil, fmt.Errorf("error creating queue %q: %w", name, err)
	}
	return q, nil
}

func (s *queueService) Rename(ctx context.Context, account, user, id, name string) (*models.Queue, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageQueues); err != nil {
		return nil, err
	}
	name, err := queueName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, account, id); err != nil {
		return nil, err
	}

	var updated *models.Queue
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		q, err := tx.Queue.Update(ctx, id, query.Set{"name": name})
		if err != nil {
			return err
		}
		updated = q
		return audit(ctx, tx, models.AuditQueueUpdated, account, user, map[string]any{"queue": id, "name": name})
	})
	if err != nil {
		return nil, fmt.Errorf("error renaming queue %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes the queue. Its schedules go with it.
func (s *queueService) Delete(ctx context.Context, account, user, id string) error {
	if _, err := authorize(ctx, s.c, account, user, models.PermManageQueues); err != nil {
		return err
	}
	if _, err := s.find(ctx, account, id); err != nil {
		return err
	}
	return s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.Queue.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: queue %s", ErrNotFound, id)
			}
			return err
		}
		return audit(ctx, tx, models.AuditQueueDeleted, account, user, map[string]any{"queue": id})
	})
}

func (s *queueService) List(ctx context.Context, account, user string) ([]*models.Queue, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	return s.c.Queue.FindMany(ctx, query.Args{
		Where:   query.Eq("account_pubkey", account),
		OrderBy: []query.Order{query.Asc("name")},
	})
}

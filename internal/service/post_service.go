package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/transfer"
)

type PostService interface {
	CreateDraft(ctx context.Context, account, user, rawEvent string) (*models.Post, error)
	Import(ctx context.Context, account, user, rawEvent string) (*models.Post, error)
	Get(ctx context.Context, account, user, id string) (*models.Post, error)
	List(ctx context.Context, account, user string, filter transfer.PostFilter) ([]*models.Post, error)
	Delete(ctx context.Context, account, user, id string) error
	Stats(ctx context.Context, account, user string) (*transfer.PostStats, error)
}

type postService struct {
	c *repository.Client
}

func NewPostService(c *repository.Client) PostService {
	return &postService{c: c}
}

func (s *postService) CreateDraft(ctx context.Context, account, user, rawEvent string) (*models.Post, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermCreateDrafts); err != nil {
		return nil, err
	}
	rawEvent = strings.TrimSpace(rawEvent)
	ev, err := nostrx.ParseDraft(rawEvent)
	if err != nil {
		return nil, invalid("%v", err)
	}

	post := &models.Post{
		AccountPubkey: account,
		AuthorPubkey:  user,
		Kind:          ev.Kind,
		RawEvent:      rawEvent,
		IsDraft:       true,
	}
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if err := tx.Post.Create(ctx, post); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditPostCreated, account, user, map[string]any{"post": post.ID, "draft": true})
	})
	if err != nil {
		return nil, fmt.Errorf("error creating draft: %w", err)
	}
	return post, nil
}

func (s *postService) Import(ctx context.Context, account, user, rawEvent string) (*models.Post, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermPublish); err != nil {
		return nil, err
	}
	rawEvent = strings.TrimSpace(rawEvent)
	ev, err := nostrx.ParseSigned(rawEvent)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if ev.PubKey != account {
		return nil, invalid("event is signed by %s, not by the account key", ev.PubKey)
	}

	eventID := ev.ID
	post := &models.Post{
		AccountPubkey:       account,
		AuthorPubkey:        ev.PubKey,
		NostrEventID:        &eventID,
		Kind:                ev.Kind,
		RawEvent:            rawEvent,
		IsDraft:             false,
		OriginalPostNostrID: nostrx.ReferencedEventID(ev),
	}
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.User.Ensure(ctx, ev.PubKey); err != nil {
			return err
		}
		if err := tx.Post.Create(ctx, post); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditPostCreated, account, user, map[string]any{"post": post.ID, "event": eventID})
	})
	if err != nil {
		return nil, fmt.Errorf("error importing event %s: %w", eventID, err)
	}
	return post, nil
}

func (s *postService) find(ctx context.Context, account, id string) (*models.Post, error) {
	post, found, err := s.c.Post.FindUnique(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found || post.AccountPubkey != account {
		err = fmt.Errorf("%w: post %s", ErrNotFound, id)
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, account, user, id string) (*models.Post, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	return s.find(ctx, account, id)
}

func (s *postService) List(ctx context.Context, account, user string, filter transfer.PostFilter) ([]*models.Post, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	where := []query.Cond{query.Eq("account_pubkey", account)}
	if filter.Kind != nil {
		where = append(where, query.Eq("kind", *filter.Kind))
	}
	if filter.Draft != nil {
		where = append(where, query.Eq("is_draft", *filter.Draft))
	}
	take, skip := page(filter.Take, filter.Skip)
	return s.c.Post.FindMany(ctx, query.Args{
		Where:   query.And(where...),
		OrderBy: []query.Order{query.Desc("created_at")},
		Take:    take,
		Skip:    skip,
	})
}

func (s *postService) Delete(ctx context.Context, account, user, id string) error {
	if _, err := authorize(ctx, s.c, account, user, models.PermCreateDrafts); err != nil {
		return err
	}
	post, err := s.find(ctx, account, id)
	if err != nil {
		return err
	}
	return s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.Post.Delete(ctx, post.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: post %s", ErrNotFound, id)
			}
			return err
		}
		return audit(ctx, tx, models.AuditPostDeleted, account, user, map[string]any{"post": post.ID})
	})
}

func (s *postService) Stats(ctx context.Context, account, user string) (*transfer.PostStats, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermViewMetrics); err != nil {
		return nil, err
	}
	inAccount := query.Eq("account_pubkey", account)

	kinds, err := s.c.Post.GroupBy(ctx, query.GroupBySpec{
		By:      []string{"kind"},
		Where:   inAccount,
		Count:   true,
		OrderBy: []query.Order{query.Asc("kind")},
	})
	if err != nil {
		return nil, err
	}
	drafts, err := s.c.Post.Count(ctx, query.And(inAccount, query.Eq("is_draft", true)))
	if err != nil {
		return nil, err
	}
	statuses, err := s.c.Schedule.GroupBy(ctx, query.GroupBySpec{
		By:      []string{"status"},
		Where:   inAccount,
		Count:   true,
		OrderBy: []query.Order{query.Asc("status")},
	})
	if err != nil {
		return nil, err
	}

	stats := &transfer.PostStats{
		Drafts:    drafts,
		ByKind:    make([]transfer.KindCount, 0, len(kinds)),
		Schedules: make([]transfer.StatusCount, 0, len(statuses)),
	}
	for _, g := range kinds {
		stats.Posts += g.Count
		stats.ByKind = append(stats.ByKind, transfer.KindCount{Kind: int(toInt64(g.Keys["kind"])), Count: g.Count})
	}
	for _, g := range statuses {
		status, _ := g.Keys["status"].(string)
		stats.Schedules = append(stats.Schedules, transfer.StatusCount{Status: status, Count: g.Count})
	}
	return stats, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

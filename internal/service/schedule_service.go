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
)

const sweepBatch = 500

type ScheduleService interface {
	Schedule(ctx context.Context, account, user string, in transfer.ScheduleCreation) (*models.Schedule, error)
	Cancel(ctx context.Context, account, user, id string) (*models.Schedule, error)
	List(ctx context.Context, account, user string, filter transfer.ScheduleFilter) ([]*models.Schedule, error)
	// EnqueueDue re-dispatches due schedules that were never attempted: time-based ones
	// past scheduled_at and triggered ones whose parent published long enough ago.
	EnqueueDue(ctx context.Context) (int, error)
	// ExpireTriggers expires triggered schedules past trigger_expires_at and those whose
	// parent can no longer publish.
	ExpireTriggers(ctx context.Context) (int64, error)
}

type scheduleService struct {
	cfg config.Config
	c   *repository.Client
	d   Dispatcher
	m   metrics.Metrics
}

func NewScheduleService(cfg config.Config, c *repository.Client, d Dispatcher, m metrics.Metrics) ScheduleService {
	return &scheduleService{
		cfg: cfg,
		c:   c,
		d:   d,
		m:   m,
	}
}

func (s *scheduleService) Schedule(ctx context.Context, account, user string, in transfer.ScheduleCreation) (*models.Schedule, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermSchedule); err != nil {
		return nil, err
	}

	post, found, err := s.c.Post.FindUnique(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !found || post.AccountPubkey != account {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, in.PostID)
	}
	if post.IsDraft {
		return nil, invalid("drafts cannot be scheduled, import the signed event first")
	}

	if in.QueueID != nil && *in.QueueID != "" {
		q, found, err := s.c.Queue.FindUnique(ctx, *in.QueueID)
		if err != nil {
			return nil, err
		}
		if !found || q.AccountPubkey != account {
			return nil, fmt.Errorf("%w: queue %s", ErrNotFound, *in.QueueID)
		}
	} else {
		in.QueueID = nil
	}

	fallback := ""
	if settings, found, err := s.c.Setting.FindByAccount(ctx, account); err != nil {
		return nil, err
	} else if found {
		fallback = settings.Relays
	}
	relays, err := validRelays(in.Relays, fallback)
	if err != nil {
		return nil, err
	}

	if s.cfg.RequireSubscription {
		sub, _, err := s.c.Subscription.FindByAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		if !sub.IsActive(now()) {
			slog.Info(ErrSubscriptionRequired.Error(), "account", account)
			return nil, ErrSubscriptionRequired
		}
	}

	schedule := &models.Schedule{
		PostID:        post.ID,
		QueueID:       in.QueueID,
		AccountPubkey: account,
		UserPubkey:    user,
		Relays:        relays,
		Status:        models.ScheduleStatusPending,
	}

	// dispatchNow is set when the schedule can be handed to the queue right away.
	dispatchNow := false
	var delay time.Duration

	if in.TriggerType == nil || *in.TriggerType == "" {
		if in.ScheduledAt == nil {
			return nil, invalid("scheduled_at is required for a time based schedule")
		}
		at := in.ScheduledAt.UTC()
		schedule.ScheduledAt = &at
		delay = at.Sub(now())
		if delay < 0 {
			delay = 0
		}
		dispatchNow = true
	} else {
		if *in.TriggerType != models.TriggerAfterSchedule {
			return nil, invalid("unknown trigger type %q", *in.TriggerType)
		}
		if in.AfterScheduleID == "" {
			return nil, invalid("after_schedule_id is required for an after_schedule trigger")
		}
		if in.DelaySeconds < 0 {
			return nil, invalid("delay_seconds cannot be negative")
		}
		if in.TriggerExpiresAt != nil && !in.TriggerExpiresAt.After(now()) {
			return nil, invalid("trigger_expires_at must be in the future")
		}
		dep, found, err := s.c.Schedule.FindUnique(ctx, in.AfterScheduleID)
		if err != nil {
			return nil, err
		}
		if !found || dep.AccountPubkey != account {
			return nil, fmt.Errorf("%w: schedule %s", ErrNotFound, in.AfterScheduleID)
		}
		switch dep.Status {
		case models.ScheduleStatusPublished:
			dispatchNow = true
			delay = time.Duration(in.DelaySeconds) * time.Second
		case models.ScheduleStatusPending, models.ScheduleStatusPublishing:
		default:
			return nil, invalid("schedule %s is %s and will never publish", dep.ID, dep.Status)
		}

		details, err := json.Marshal(models.AfterScheduleTrigger{ScheduleID: dep.ID, DelaySeconds: in.DelaySeconds})
		if err != nil {
			return nil, err
		}
		triggerType, triggerDetails := models.TriggerAfterSchedule, string(details)
		schedule.TriggerType = &triggerType
		schedule.TriggerDetails = &triggerDetails
		if in.TriggerExpiresAt != nil {
			expires := in.TriggerExpiresAt.UTC()
			schedule.TriggerExpiresAt = &expires
		}
	}

	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if err := tx.Schedule.Create(ctx, schedule); err != nil {
			return err
		}
		return audit(ctx, tx, models.AuditScheduleCreated, account, user, map[string]any{"schedule": schedule.ID, "post": post.ID})
	})
	if err != nil {
		return nil, fmt.Errorf("error creating schedule: %w", err)
	}

	if dispatchNow {
		// A failed dispatch leaves the schedule pending for the sweeper.
		if err := s.d.Dispatch(ctx, schedule.ID, delay); err != nil {
			slog.Error("failed to enqueue schedule", "schedule", schedule.ID, "error", err)
		} else {
			s.m.ScheduleEnqueued("api")
		}
	}
	return schedule, nil
}

func (s *scheduleService) Cancel(ctx context.Context, account, user, id string) (*models.Schedule, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermSchedule); err != nil {
		return nil, err
	}
	existing, found, err := s.c.Schedule.FindUnique(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found || existing.AccountPubkey != account {
		return nil, fmt.Errorf("%w: schedule %s", ErrNotFound, id)
	}
	if existing.Status != models.ScheduleStatusPending {
		return nil, invalid("only pending schedules can be cancelled, %s is %s", id, existing.Status)
	}

	var cancelled *models.Schedule
	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		sc, err := tx.Schedule.Cancel(ctx, id)
		if err != nil {
			return err
		}
		cancelled = sc
		n, err := tx.Schedule.AbandonDependents(ctx, id, models.ScheduleStatusCancelled)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("cancelled dependent schedules", "schedule", id, "count", n)
		}
		return audit(ctx, tx, models.AuditScheduleCancelled, account, user, map[string]any{"schedule": id})
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("schedule %s is no longer pending", id)
		}
		return nil, err
	}
	return cancelled, nil
}

func (s *scheduleService) List(ctx context.Context, account, user string, filter transfer.ScheduleFilter) ([]*models.Schedule, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	where := []query.Cond{query.Eq("account_pubkey", account)}
	if filter.Status != "" {
		where = append(where, query.Eq("status", filter.Status))
	}
	if filter.QueueID != "" {
		where = append(where, query.Eq("queue_id", filter.QueueID))
	}
	take, skip := page(filter.Take, filter.Skip)
	return s.c.Schedule.FindMany(ctx, query.Args{
		Where:   query.And(where...),
		OrderBy: []query.Order{query.Desc("created_at")},
		Take:    take,
		Skip:    skip,
	})
}

func (s *scheduleService) EnqueueDue(ctx context.Context) (int, error) {
	due, err := s.c.Schedule.ListDue(ctx, now(), sweepBatch)
	if err != nil {
		return 0, err
	}
	released, err := s.c.Schedule.ListReleasable(ctx, now(), sweepBatch)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, sc := range append(due, released...) {
		if err := s.d.Dispatch(ctx, sc.ID, 0); err != nil {
			slog.Error("failed to enqueue due schedule", "schedule", sc.ID, "error", err)
			continue
		}
		s.m.ScheduleEnqueued("sweep")
		enqueued++
	}
	return enqueued, nil
}

func (s *scheduleService) ExpireTriggers(ctx context.Context) (int64, error) {
	expired, err := s.c.Schedule.ExpireTriggers(ctx, now())
	if err != nil {
		return 0, err
	}
	orphaned, err := s.c.Schedule.ExpireOrphaned(ctx)
	if err != nil {
		return expired, err
	}
	if n := expired + orphaned; n > 0 {
		slog.Info("expired triggered schedules", "count", n, "orphaned", orphaned)
	}
	return expired + orphaned, nil
}

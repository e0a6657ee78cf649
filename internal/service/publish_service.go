package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/relay"
	"github.com/maheshrc27/postr/internal/repository"
)

type PublishService interface {
	// Publish sends the schedule's event to its relays. A schedule that is no longer
	// pending is skipped without error.
	Publish(ctx context.Context, scheduleID string) error
}

type publishService struct {
	c  *repository.Client
	rp relay.Publisher
	d  Dispatcher
	m  metrics.Metrics
}

func NewPublishService(c *repository.Client, rp relay.Publisher, d Dispatcher, m metrics.Metrics) PublishService {
	return &publishService{
		c:  c,
		rp: rp,
		d:  d,
		m:  m,
	}
}

func (s *publishService) Publish(ctx context.Context, scheduleID string) error {
	schedule, claimed, err := s.c.Schedule.ClaimForPublish(ctx, scheduleID, now())
	if err != nil {
		return fmt.Errorf("failed to claim schedule %s: %w", scheduleID, err)
	}
	if !claimed {
		slog.Info("schedule is not pending, skipping", "schedule", scheduleID)
		s.m.SchedulePublished(metrics.ResultSkipped)
		return nil
	}

	errs := s.send(ctx, schedule)

	status, action, result := models.ScheduleStatusPublished, models.AuditSchedulePublished, metrics.ResultPublished
	var publishError *string
	if errs != nil {
		status, action, result = models.ScheduleStatusFailed, models.AuditScheduleFailed, metrics.ResultFailed
		msg := strings.Join(errs, "; ")
		publishError = &msg
	}

	err = s.c.Transaction(ctx, func(tx *repository.Client) error {
		if _, err := tx.Schedule.Finish(ctx, schedule.ID, status, publishError); err != nil {
			return err
		}
		if status == models.ScheduleStatusFailed {
			n, err := tx.Schedule.AbandonDependents(ctx, schedule.ID, models.ScheduleStatusExpired)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("expired dependents of failed schedule", "schedule", schedule.ID, "count", n)
			}
		}
		details := map[string]any{"schedule": schedule.ID, "post": schedule.PostID}
		if publishError != nil {
			details["error"] = *publishError
		}
		return audit(ctx, tx, action, schedule.AccountPubkey, schedule.UserPubkey, details)
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome of schedule %s: %w", schedule.ID, err)
	}
	s.m.SchedulePublished(result)

	if status == models.ScheduleStatusPublished {
		s.releaseDependents(ctx, schedule.ID)
	}
	return nil
}

// send publishes the post and returns nil when at least one relay accepted it, or the
// per relay errors otherwise.
func (s *publishService) send(ctx context.Context, schedule *models.Schedule) []string {
	post, found, err := s.c.Post.FindUnique(ctx, schedule.PostID)
	if err != nil {
		return []string{err.Error()}
	}
	if !found {
		return []string{fmt.Sprintf("post %s no longer exists", schedule.PostID)}
	}
	ev, err := nostrx.ParseSigned(post.RawEvent)
	if err != nil {
		return []string{err.Error()}
	}
	relays := schedule.RelayList()
	if len(relays) == 0 {
		return []string{"schedule has no relays"}
	}

	var errs []string
	accepted := 0
	for _, r := range s.rp.PublishAll(ctx, relays, *ev) {
		if r.Err != nil {
			s.m.RelayPublished(r.Relay, metrics.ResultRejected)
			errs = append(errs, r.Err.Error())
			continue
		}
		s.m.RelayPublished(r.Relay, metrics.ResultAccepted)
		accepted++
	}
	if accepted > 0 {
		if len(errs) > 0 {
			slog.Info("event published with partial relay failures", "schedule", schedule.ID, "accepted", accepted, "failed", len(errs))
		}
		return nil
	}
	return errs
}

func (s *publishService) releaseDependents(ctx context.Context, scheduleID string) {
	dependents, err := s.c.Schedule.ListDependents(ctx, scheduleID)
	if err != nil {
		slog.Error("failed to list dependent schedules", "schedule", scheduleID, "error", err)
		return
	}
	for _, dep := range dependents {
		if dep.TriggerExpiresAt != nil && dep.TriggerExpiresAt.Before(now()) {
			continue
		}
		var trigger models.AfterScheduleTrigger
		if dep.TriggerDetails != nil {
			if err := json.Unmarshal([]byte(*dep.TriggerDetails), &trigger); err != nil {
				slog.Error("malformed trigger details", "schedule", dep.ID, "error", err)
				continue
			}
		}
		delay := time.Duration(trigger.DelaySeconds) * time.Second
		// the sweeper picks up dependents whose dispatch failed
		if err := s.d.Dispatch(ctx, dep.ID, delay); err != nil {
			slog.Error("failed to enqueue dependent schedule", "schedule", dep.ID, "error", err)
			continue
		}
		s.m.ScheduleEnqueued("trigger")
	}
}

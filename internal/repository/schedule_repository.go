package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var scheduleTable = query.Table{
	Name: "schedules",
	Key:  "id",
	Columns: []string{
		"id", "post_id", "queue_id", "account_pubkey", "user_pubkey",
		"scheduled_at", "trigger_type", "trigger_details", "trigger_expires_at",
		"relays", "status", "publish_attempted_at", "publish_error",
		"created_at", "updated_at",
	},
}

type ScheduleRepository interface {
	Delegate[models.Schedule]
	// ClaimForPublish moves a pending schedule to publishing. It reports false when the
	// schedule is missing or no longer pending.
	ClaimForPublish(ctx context.Context, id string, at time.Time) (*models.Schedule, bool, error)
	Finish(ctx context.Context, id, status string, publishError *string) (*models.Schedule, error)
	// Cancel moves a pending schedule to cancelled, or returns ErrNotFound.
	Cancel(ctx context.Context, id string) (*models.Schedule, error)
	ListDue(ctx context.Context, at time.Time, limit int) ([]*models.Schedule, error)
	ListDependents(ctx context.Context, scheduleID string) ([]*models.Schedule, error)
	ExpireTriggers(ctx context.Context, at time.Time) (int64, error)
	// ListReleasable returns pending after_schedule schedules that were never attempted
	// although their parent published at least delaySeconds before at.
	ListReleasable(ctx context.Context, at time.Time, limit int) ([]*models.Schedule, error)
	// AbandonDependents moves every pending schedule waiting on scheduleID, directly or
	// through a chain of triggers, to status.
	AbandonDependents(ctx context.Context, scheduleID, status string) (int64, error)
	// ExpireOrphaned expires pending after_schedule schedules whose parent is gone or can
	// no longer publish.
	ExpireOrphaned(ctx context.Context) (int64, error)
}

type scheduleRepository struct {
	*delegate[models.Schedule]
}

func NewScheduleRepository(db DBTX) ScheduleRepository {
	return &scheduleRepository{newDelegate(db, mapping[models.Schedule]{
		table: scheduleTable,
		values: func(s *models.Schedule) []any {
			return []any{
				s.ID, s.PostID, s.QueueID, s.AccountPubkey, s.UserPubkey,
				s.ScheduledAt, s.TriggerType, s.TriggerDetails, s.TriggerExpiresAt,
				s.Relays, s.Status, s.PublishAttemptedAt, s.PublishError,
				s.CreatedAt, s.UpdatedAt,
			}
		},
		scan: func(row rowScanner, s *models.Schedule) error {
			return row.Scan(
				&s.ID, &s.PostID, &s.QueueID, &s.AccountPubkey, &s.UserPubkey,
				&s.ScheduledAt, &s.TriggerType, &s.TriggerDetails, &s.TriggerExpiresAt,
				&s.Relays, &s.Status, &s.PublishAttemptedAt, &s.PublishError,
				&s.CreatedAt, &s.UpdatedAt,
			)
		},
		prepare: func(s *models.Schedule, t time.Time) {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			if s.Status == "" {
				s.Status = models.ScheduleStatusPending
			}
			stamp(&s.CreatedAt, &s.UpdatedAt, t)
		},
	})}
}

func (r *scheduleRepository) ClaimForPublish(ctx context.Context, id string, at time.Time) (*models.Schedule, bool, error) {
	s, err := r.updateWhere(ctx,
		query.And(query.Eq("id", id), query.Eq("status", models.ScheduleStatusPending)),
		query.Set{"status": models.ScheduleStatusPublishing, "publish_attempted_at": at},
	)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *scheduleRepository) Finish(ctx context.Context, id, status string, publishError *string) (*models.Schedule, error) {
	return r.updateWhere(ctx,
		query.And(query.Eq("id", id), query.Eq("status", models.ScheduleStatusPublishing)),
		query.Set{"status": status, "publish_error": publishError},
	)
}

func (r *scheduleRepository) Cancel(ctx context.Context, id string) (*models.Schedule, error) {
	return r.updateWhere(ctx,
		query.And(query.Eq("id", id), query.Eq("status", models.ScheduleStatusPending)),
		query.Set{"status": models.ScheduleStatusCancelled},
	)
}

// ListDue returns time-based pending schedules that are due and were never attempted.
func (r *scheduleRepository) ListDue(ctx context.Context, at time.Time, limit int) ([]*models.Schedule, error) {
	return r.FindMany(ctx, query.Args{
		Where: query.And(
			query.Eq("status", models.ScheduleStatusPending),
			query.IsNull("trigger_type"),
			query.Lte("scheduled_at", at),
			query.IsNull("publish_attempted_at"),
		),
		OrderBy: []query.Order{query.Asc("scheduled_at")},
		Take:    limit,
	})
}

// ListDependents returns pending schedules waiting on scheduleID to publish.
func (r *scheduleRepository) ListDependents(ctx context.Context, scheduleID string) ([]*models.Schedule, error) {
	q := `
		SELECT id, post_id, queue_id, account_pubkey, user_pubkey,
			scheduled_at, trigger_type, trigger_details, trigger_expires_at,
			relays, status, publish_attempted_at, publish_error,
			created_at, updated_at
		FROM schedules
		WHERE status = $1
			AND trigger_type = $2
			AND trigger_details::jsonb ->> 'scheduleId' = $3
		ORDER BY created_at
	`
	return r.queryMany(ctx, q, models.ScheduleStatusPending, models.TriggerAfterSchedule, scheduleID)
}

func (r *scheduleRepository) ExpireTriggers(ctx context.Context, at time.Time) (int64, error) {
	return r.UpdateMany(ctx,
		query.And(
			query.Eq("status", models.ScheduleStatusPending),
			query.NotNull("trigger_type"),
			query.Lt("trigger_expires_at", at),
		),
		query.Set{"status": models.ScheduleStatusExpired},
	)
}

func qualifiedScheduleColumns(alias string) string {
	cols := make([]string, len(scheduleTable.Columns))
	for i, c := range scheduleTable.Columns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *scheduleRepository) ListReleasable(ctx context.Context, at time.Time, limit int) ([]*models.Schedule, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM schedules s
		JOIN schedules p ON p.id = s.trigger_details::jsonb ->> 'scheduleId'
		WHERE s.status = $1
			AND s.trigger_type = $2
			AND s.publish_attempted_at IS NULL
			AND (s.trigger_expires_at IS NULL OR s.trigger_expires_at >= $3)
			AND p.status = $4
			AND p.updated_at + make_interval(secs => COALESCE((s.trigger_details::jsonb ->> 'delaySeconds')::int, 0)) <= $3
		ORDER BY s.created_at
		LIMIT $5
	`, qualifiedScheduleColumns("s"))
	return r.queryMany(ctx, q,
		models.ScheduleStatusPending, models.TriggerAfterSchedule, at,
		models.ScheduleStatusPublished, limit,
	)
}

func (r *scheduleRepository) AbandonDependents(ctx context.Context, scheduleID, status string) (int64, error) {
	q := `
		WITH RECURSIVE chain(id) AS (
			SELECT id FROM schedules
			WHERE status = $1 AND trigger_type = $2 AND trigger_details::jsonb ->> 'scheduleId' = $3
			UNION
			SELECT s.id FROM schedules s
			JOIN chain c ON s.trigger_details::jsonb ->> 'scheduleId' = c.id
			WHERE s.status = $1 AND s.trigger_type = $2
		)
		UPDATE schedules SET status = $4, updated_at = $5
		WHERE status = $1 AND id IN (SELECT id FROM chain)
	`
	res, err := r.db.ExecContext(ctx, q, models.ScheduleStatusPending, models.TriggerAfterSchedule, scheduleID, status, now())
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (r *scheduleRepository) ExpireOrphaned(ctx context.Context) (int64, error) {
	q := `
		UPDATE schedules s SET status = $1, updated_at = $2
		WHERE s.status = $3
			AND s.trigger_type = $4
			AND NOT EXISTS (
				SELECT 1 FROM schedules p
				WHERE p.id = s.trigger_details::jsonb ->> 'scheduleId'
					AND p.status IN ($3, $5, $6)
			)
	`
	res, err := r.db.ExecContext(ctx, q,
		models.ScheduleStatusExpired, now(), models.ScheduleStatusPending, models.TriggerAfterSchedule,
		models.ScheduleStatusPublishing, models.ScheduleStatusPublished,
	)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

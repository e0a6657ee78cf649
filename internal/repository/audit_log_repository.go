package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var auditLogTable = query.Table{
	Name:    "audit_logs",
	Key:     "id",
	Columns: []string{"id", "account_pubkey", "user_pubkey", "action", "context", "created_at", "updated_at"},
}

type AuditLogRepository interface {
	Delegate[models.AuditLog]
	ListByAccount(ctx context.Context, accountPubkey string, take, skip int) ([]*models.AuditLog, error)
}

type auditLogRepository struct {
	*delegate[models.AuditLog]
}

func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{newDelegate(db, mapping[models.AuditLog]{
		table: auditLogTable,
		values: func(a *models.AuditLog) []any {
			return []any{a.ID, a.AccountPubkey, a.UserPubkey, a.Action, a.Context, a.CreatedAt, a.UpdatedAt}
		},
		scan: func(s rowScanner, a *models.AuditLog) error {
			return s.Scan(&a.ID, &a.AccountPubkey, &a.UserPubkey, &a.Action, &a.Context, &a.CreatedAt, &a.UpdatedAt)
		},
		prepare: func(a *models.AuditLog, t time.Time) {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			stamp(&a.CreatedAt, &a.UpdatedAt, t)
		},
	})}
}

func (r *auditLogRepository) ListByAccount(ctx context.Context, accountPubkey string, take, skip int) ([]*models.AuditLog, error) {
	return r.FindMany(ctx, query.Args{
		Where:   query.Eq("account_pubkey", accountPubkey),
		OrderBy: []query.Order{query.Desc("created_at")},
		Take:    take,
		Skip:    skip,
	})
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var accountUserTable = query.Table{
	Name: "account_users",
	Key:  "id",
	Columns: []string{
		"id", "account_pubkey", "user_pubkey", "role",
		"can_create_drafts", "can_schedule", "can_publish",
		"can_manage_queues", "can_manage_collaborators", "can_view_metrics",
		"invitation_status", "created_at", "updated_at",
	},
}

type AccountUserRepository interface {
	Delegate[models.AccountUser]
	FindMembership(ctx context.Context, accountPubkey, userPubkey string) (*models.AccountUser, bool, error)
	// UpsertMembership inserts au or, when the (account, user) pair exists, applies update.
	UpsertMembership(ctx context.Context, au *models.AccountUser, update query.Set) (*models.AccountUser, error)
	ListByAccount(ctx context.Context, accountPubkey string) ([]*models.AccountUser, error)
}

type accountUserRepository struct {
	*delegate[models.AccountUser]
}

func NewAccountUserRepository(db DBTX) AccountUserRepository {
	return &accountUserRepository{newDelegate(db, mapping[models.AccountUser]{
		table: accountUserTable,
		values: func(au *models.AccountUser) []any {
			return []any{
				au.ID, au.AccountPubkey, au.UserPubkey, au.Role,
				au.CanCreateDrafts, au.CanSchedule, au.CanPublish,
				au.CanManageQueues, au.CanManageCollaborators, au.CanViewMetrics,
				au.InvitationStatus, au.CreatedAt, au.UpdatedAt,
			}
		},
		scan: func(s rowScanner, au *models.AccountUser) error {
			return s.Scan(
				&au.ID, &au.AccountPubkey, &au.UserPubkey, &au.Role,
				&au.CanCreateDrafts, &au.CanSchedule, &au.CanPublish,
				&au.CanManageQueues, &au.CanManageCollaborators, &au.CanViewMetrics,
				&au.InvitationStatus, &au.CreatedAt, &au.UpdatedAt,
			)
		},
		prepare: func(au *models.AccountUser, t time.Time) {
			if au.ID == "" {
				au.ID = uuid.NewString()
			}
			stamp(&au.CreatedAt, &au.UpdatedAt, t)
		},
	})}
}

func (r *accountUserRepository) FindMembership(ctx context.Context, accountPubkey, userPubkey string) (*models.AccountUser, bool, error) {
	return r.FindFirst(ctx, query.Args{
		Where: query.And(query.Eq("account_pubkey", accountPubkey), query.Eq("user_pubkey", userPubkey)),
	})
}

func (r *accountUserRepository) UpsertMembership(ctx context.Context, au *models.AccountUser, update query.Set) (*models.AccountUser, error) {
	return r.upsertOn(ctx, au, []string{"account_pubkey", "user_pubkey"}, update)
}

func (r *accountUserRepository) ListByAccount(ctx context.Context, accountPubkey string) ([]*models.AccountUser, error) {
	return r.FindMany(ctx, query.Args{
		Where:   query.Eq("account_pubkey", accountPubkey),
		OrderBy: []query.Order{query.Asc("created_at")},
	})
}

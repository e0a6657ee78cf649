package repository

import (
	"context"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var accountTable = query.Table{
	Name:    "accounts",
	Key:     "pubkey",
	Columns: []string{"pubkey", "name", "created_at", "updated_at"},
}

type AccountRepository interface {
	Delegate[models.Account]
	ListForUser(ctx context.Context, userPubkey string) ([]*models.Account, error)
}

type accountRepository struct {
	*delegate[models.Account]
}

func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{newDelegate(db, mapping[models.Account]{
		table: accountTable,
		values: func(a *models.Account) []any {
			return []any{a.Pubkey, a.Name, a.CreatedAt, a.UpdatedAt}
		},
		scan: func(s rowScanner, a *models.Account) error {
			return s.Scan(&a.Pubkey, &a.Name, &a.CreatedAt, &a.UpdatedAt)
		},
		prepare: func(a *models.Account, t time.Time) {
			stamp(&a.CreatedAt, &a.UpdatedAt, t)
		},
	})}
}

// ListForUser returns the accounts the user holds an accepted membership in.
func (r *accountRepository) ListForUser(ctx context.Context, userPubkey string) ([]*models.Account, error) {
	q := `
		SELECT a.pubkey, a.name, a.created_at, a.updated_at
		FROM accounts a
		JOIN account_users au ON au.account_pubkey = a.pubkey
		WHERE au.user_pubkey = $1 AND au.invitation_status = $2
		ORDER BY a.created_at
	`
	return r.queryMany(ctx, q, userPubkey, models.InvitationAccepted)
}

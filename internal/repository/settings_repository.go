package repository

import (
	"context"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var settingTable = query.Table{
	Name:    "settings",
	Key:     "account_pubkey",
	Columns: []string{"account_pubkey", "relays", "created_at", "updated_at"},
}

type SettingRepository interface {
	Delegate[models.Setting]
	FindByAccount(ctx context.Context, accountPubkey string) (*models.Setting, bool, error)
}

type settingRepository struct {
	*delegate[models.Setting]
}

func NewSettingRepository(db DBTX) SettingRepository {
	return &settingRepository{newDelegate(db, mapping[models.Setting]{
		table: settingTable,
		values: func(s *models.Setting) []any {
			return []any{s.AccountPubkey, s.Relays, s.CreatedAt, s.UpdatedAt}
		},
		scan: func(row rowScanner, s *models.Setting) error {
			return row.Scan(&s.AccountPubkey, &s.Relays, &s.CreatedAt, &s.UpdatedAt)
		},
		prepare: func(s *models.Setting, t time.Time) {
			stamp(&s.CreatedAt, &s.UpdatedAt, t)
		},
	})}
}

func (r *settingRepository) FindByAccount(ctx context.Context, accountPubkey string) (*models.Setting, bool, error) {
	return r.FindUnique(ctx, accountPubkey)
}

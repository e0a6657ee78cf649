package repository

import (
	"context"
	"time"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var userTable = query.Table{
	Name:    "users",
	Key:     "pubkey",
	Columns: []string{"pubkey", "name", "created_at", "updated_at"},
}

type UserRepository interface {
	Delegate[models.User]
	// Ensure returns the user with pubkey, creating an empty profile if none exists.
	Ensure(ctx context.Context, pubkey string) (*models.User, error)
}

type userRepository struct {
	*delegate[models.User]
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{newDelegate(db, mapping[models.User]{
		table: userTable,
		values: func(u *models.User) []any {
			return []any{u.Pubkey, u.Name, u.CreatedAt, u.UpdatedAt}
		},
		scan: func(s rowScanner, u *models.User) error {
			return s.Scan(&u.Pubkey, &u.Name, &u.CreatedAt, &u.UpdatedAt)
		},
		prepare: func(u *models.User, t time.Time) {
			stamp(&u.CreatedAt, &u.UpdatedAt, t)
		},
	})}
}

func (r *userRepository) Ensure(ctx context.Context, pubkey string) (*models.User, error) {
	return r.Upsert(ctx, &models.User{Pubkey: pubkey}, nil)
}

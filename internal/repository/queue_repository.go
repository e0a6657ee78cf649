package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var queueTable = query.Table{
	Name:    "queues",
	Key:     "id",
	Columns: []string{"id", "account_pubkey", "name", "created_at", "updated_at"},
}

type QueueRepository interface {
	Delegate[models.Queue]
	FindByName(ctx context.Context, accountPubkey, name string) (*models.Queue, bool, error)
}

type queueRepository struct {
	*delegate[models.Queue]
}

func NewQueueRepository(db DBTX) QueueRepository {
	return &queueRepository{newDelegate(db, mapping[models.Queue]{
		table: queueTable,
		values: func(q *models.Queue) []any {
			return []any{q.ID, q.AccountPubkey, q.Name, q.CreatedAt, q.UpdatedAt}
		},
		scan: func(s rowScanner, q *models.Queue) error {
			return s.Scan(&q.ID, &q.AccountPubkey, &q.Name, &q.CreatedAt, &q.UpdatedAt)
		},
		prepare: func(q *models.Queue, t time.Time) {
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			stamp(&q.CreatedAt, &q.UpdatedAt, t)
		},
	})}
}

func (r *queueRepository) FindByName(ctx context.Context, accountPubkey, name string) (*models.Queue, bool, error) {
	return r.FindFirst(ctx, query.Args{
		Where: query.And(query.Eq("account_pubkey", accountPubkey), query.Eq("name", name)),
	})
}

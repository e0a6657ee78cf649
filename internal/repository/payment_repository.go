package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var paymentTable = query.Table{
	Name: "payments",
	Key:  "id",
	Columns: []string{
		"id", "account_pubkey", "amount", "currency", "payment_reference",
		"payment_method", "paid_at", "created_at", "updated_at",
	},
}

type PaymentRepository interface {
	Delegate[models.Payment]
	FindByReference(ctx context.Context, reference string) (*models.Payment, bool, error)
}

type paymentRepository struct {
	*delegate[models.Payment]
}

func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{newDelegate(db, mapping[models.Payment]{
		table: paymentTable,
		values: func(p *models.Payment) []any {
			return []any{
				p.ID, p.AccountPubkey, p.Amount, p.Currency, p.PaymentReference,
				p.PaymentMethod, p.PaidAt, p.CreatedAt, p.UpdatedAt,
			}
		},
		scan: func(s rowScanner, p *models.Payment) error {
			return s.Scan(
				&p.ID, &p.AccountPubkey, &p.Amount, &p.Currency, &p.PaymentReference,
				&p.PaymentMethod, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
			)
		},
		prepare: func(p *models.Payment, t time.Time) {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			stamp(&p.CreatedAt, &p.UpdatedAt, t)
		},
	})}
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, bool, error) {
	return r.FindFirst(ctx, query.Args{Where: query.Eq("payment_reference", reference)})
}

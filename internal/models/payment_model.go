package models

import "time"

type Payment struct {
	ID               string     `db:"id" json:"id"`
	AccountPubkey    string     `db:"account_pubkey" json:"account_pubkey"`
	Amount           int64      `db:"amount" json:"amount"` // minor units
	Currency         string     `db:"currency" json:"currency"`
	PaymentReference string     `db:"payment_reference" json:"payment_reference"`
	PaymentMethod    string     `db:"payment_method" json:"payment_method"`
	PaidAt           *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const PaymentMethodStripe = "stripe"

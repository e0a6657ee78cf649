package models

import "time"

type Queue struct {
	ID            string    `db:"id" json:"id"`
	AccountPubkey string    `db:"account_pubkey" json:"account_pubkey"`
	Name          string    `db:"name" json:"name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const DefaultQueueName = "default"

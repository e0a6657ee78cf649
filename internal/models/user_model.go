package models

import "time"

type User struct {
	Pubkey    string    `db:"pubkey" json:"pubkey"`
	Name      *string   `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

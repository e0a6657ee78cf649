package models

import "time"

type Setting struct {
	AccountPubkey string    `db:"account_pubkey" json:"account_pubkey"`
	Relays        string    `db:"relays" json:"relays"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (s *Setting) RelayList() []string {
	return SplitRelays(s.Relays)
}

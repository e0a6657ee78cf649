package models

import "time"

type Post struct {
	ID                  string    `db:"id" json:"id"`
	AccountPubkey       string    `db:"account_pubkey" json:"account_pubkey"`
	AuthorPubkey        string    `db:"author_pubkey" json:"author_pubkey"`
	NostrEventID        *string   `db:"nostr_event_id" json:"nostr_event_id,omitempty"`
	Kind                int       `db:"kind" json:"kind"`
	RawEvent            string    `db:"raw_event" json:"raw_event"`
	IsDraft             bool      `db:"is_draft" json:"is_draft"`
	OriginalPostNostrID *string   `db:"original_post_nostr_id" json:"original_post_nostr_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

const (
	KindTextNote        = 1
	KindRepost          = 6
	KindGenericRepost   = 16
	KindHTTPAuth        = 27235
	KindLongFormArticle = 30023
)

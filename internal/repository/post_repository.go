package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
)

var postTable = query.Table{
	Name: "posts",
	Key:  "id",
	Columns: []string{
		"id", "account_pubkey", "author_pubkey", "nostr_event_id", "kind",
		"raw_event", "is_draft", "original_post_nostr_id", "created_at", "updated_at",
	},
}

type PostRepository interface {
	Delegate[models.Post]
	FindByEventID(ctx context.Context, eventID string) (*models.Post, bool, error)
}

type postRepository struct {
	*delegate[models.Post]
}

func NewPostRepository(db DBTX) PostRepository {
	return &postRepository{newDelegate(db, mapping[models.Post]{
		table: postTable,
		values: func(p *models.Post) []any {
			return []any{
				p.ID, p.AccountPubkey, p.AuthorPubkey, p.NostrEventID, p.Kind,
				p.RawEvent, p.IsDraft, p.OriginalPostNostrID, p.CreatedAt, p.UpdatedAt,
			}
		},
		scan: func(s rowScanner, p *models.Post) error {
			return s.Scan(
				&p.ID, &p.AccountPubkey, &p.AuthorPubkey, &p.NostrEventID, &p.Kind,
				&p.RawEvent, &p.IsDraft, &p.OriginalPostNostrID, &p.CreatedAt, &p.UpdatedAt,
			)
		},
		prepare: func(p *models.Post, t time.Time) {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			stamp(&p.CreatedAt, &p.UpdatedAt, t)
		},
	})}
}

func (r *postRepository) FindByEventID(ctx context.Context, eventID string) (*models.Post, bool, error) {
	return r.FindFirst(ctx, query.Args{Where: query.Eq("nostr_event_id", eventID)})
}

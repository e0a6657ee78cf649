package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxMediaSize = 100 * 1024 * 1024

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

type MediaService interface {
	Upload(ctx context.Context, account, user string, content []byte) (*transfer.MediaUpload, error)
}

type mediaService struct {
	c     *repository.Client
	store ObjectStore
}

func NewMediaService(c *repository.Client, store ObjectStore) MediaService {
	return &mediaService{c: c, store: store}
}

func (s *mediaService) Upload(ctx context.Context, account, user string, content []byte) (*transfer.MediaUpload, error) {
	if _, err := authorize(ctx, s.c, account, user, models.PermCreateDrafts); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, invalid("file is empty")
	}
	if len(content) > maxMediaSize {
		return nil, invalid("file exceeds %d bytes", maxMediaSize)
	}

	kind, err := filetype.Match(content)
	if err != nil || kind == types.Unknown {
		return nil, invalid("unsupported file type")
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, invalid("file type %s is not allowed", kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("%s/%s.%s", account, id, kind.Extension)

	url, err := s.store.Put(ctx, key, content, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("error uploading media: %w", err)
	}

	upload := &transfer.MediaUpload{Key: key, URL: url, ContentType: kind.MIME.Value, Size: len(content)}
	if err := audit(ctx, s.c, models.AuditMediaUploaded, account, user, upload); err != nil {
		slog.Error(err.Error())
	}
	return upload, nil
}

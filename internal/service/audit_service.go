package service

import (
	"context"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/repository"
)

type AuditService interface {
	List(ctx context.Context, account, user string, take, skip int) ([]*models.AuditLog, error)
}

type auditService struct {
	c *repository.Client
}

func NewAuditService(c *repository.Client) AuditService {
	return &auditService{c: c}
}

func (s *auditService) List(ctx context.Context, account, user string, take, skip int) ([]*models.AuditLog, error) {
	if _, err := member(ctx, s.c, account, user); err != nil {
		return nil, err
	}
	take, skip = page(take, skip)
	return s.c.AuditLog.ListByAccount(ctx, account, take, skip)
}

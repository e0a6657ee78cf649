package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/query"
	"github.com/maheshrc27/postr/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, pubkey string) (*models.User, error)
	UpdateProfile(ctx context.Context, pubkey string, name *string) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, pubkey string) (*models.User, error) {
	user, isExist, err := s.u.FindUnique(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}

	if !isExist {
		err = errors.New("user not found")
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, pubkey)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, pubkey string, name *string) (*models.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len(trimmed) > 100 {
			return nil, invalid("name must be at most 100 characters")
		}
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	user, err := s.u.Update(ctx, pubkey, query.Set{"name": name})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, pubkey)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

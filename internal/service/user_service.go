package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	Remove(ctx context.Context, id int64) error
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{u: u}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, found, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		err := errors.New("user not found")
		slog.Info(err.Error())
		return nil, err
	}
	return user, nil
}

func (s *userService) Remove(ctx context.Context, id int64) error {
	return s.u.Remove(ctx, id)
}

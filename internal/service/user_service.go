package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/repository"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	Update(ctx context.Context, id string, name, avatar *string) (*repository.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, name, avatar *string) (*repository.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		n := strings.TrimSpace(*name)
		if len(n) < 2 {
			return nil, apperrors.Validation("Name must be at least 2 characters")
		}
		user.Name = n
	}
	if avatar != nil {
		user.Avatar = avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

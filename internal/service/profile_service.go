package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loadboard/internal/model"
	"loadboard/internal/repository"
	"loadboard/internal/utils"
)

// ProfileUpdate is what the profile screen submits. An empty NewPassword
// keeps the current password.
type ProfileUpdate struct {
	Address         *string `json:"address"`
	NewPassword     string  `json:"newPassword"`
	ConfirmPassword string  `json:"confirmPassword"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, uid string) (*model.User, error)
	UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*model.User, error)
}

type profileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

func (s *profileService) GetProfile(ctx context.Context, uid string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*model.User, error) {
	if update.NewPassword != update.ConfirmPassword {
		return nil, &model.ValidationError{Reason: "Passwords do not match"}
	}

	var patch model.UserPatch
	if update.Address != nil {
		address := strings.TrimSpace(*update.Address)
		patch.Address = &address
	}
	if update.NewPassword != "" {
		if len(update.NewPassword) < minPasswordLength {
			return nil, &model.ValidationError{Field: "newPassword", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
		}
		hash, err := utils.HashPassword(update.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return s.GetProfile(ctx, uid)
	}

	if err := s.userRepo.Update(ctx, uid, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(ctx, uid)
}

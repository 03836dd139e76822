package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type ProfileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (model.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return model.UserProfile{}, ErrUserNotFound
	}
	return user.Profile(), nil
}

// Update applies a partial update: nil fields are kept, and only non-blank
// address sub-fields overwrite the stored address.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (model.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return model.UserProfile{}, ErrUserNotFound
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&user.FirstName, req.FirstName)
	set(&user.LastName, req.LastName)
	set(&user.Phone, req.Phone)
	set(&user.Gender, req.Gender)
	set(&user.DOB, req.DOB)
	if req.Address != nil {
		user.Address = user.Address.Merge(*req.Address)
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return model.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	return user.Profile(), nil
}

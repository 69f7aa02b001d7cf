package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

// UserDetail is a user together with the products they starred.
type UserDetail struct {
	*model.User
	StarredProducts []model.Product `json:"starred_products"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []model.User `json:"users"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"total_pages"`
}

// ProfileUpdate holds optional profile changes. Nil fields are left alone.
type ProfileUpdate struct {
	Username *string
	Bio      *string
}

// UserService exposes account management and stars.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserDetail, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) (*UserPage, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error
	UpdatePicture(ctx context.Context, id uuid.UUID, asset media.Asset) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	StarProduct(ctx context.Context, userID, productID uuid.UUID) error
	UnstarProduct(ctx context.Context, userID, productID uuid.UUID) error
	IsStarred(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type userService struct {
	users    repository.UserRepository
	stars    repository.StarRepository
	products repository.ProductRepository
	media    media.Store
}

// NewUserService builds a UserService.
func NewUserService(
	users repository.UserRepository,
	stars repository.StarRepository,
	products repository.ProductRepository,
	mediaStore media.Store,
) UserService {
	return &userService{users: users, stars: stars, products: products, media: mediaStore}
}

const defaultUserPageSize = 10

func (s *userService) find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*UserDetail, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.stars.ListProductIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list stars: %w", err)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load starred products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &UserDetail{User: user, StarredProducts: products}, nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) (*UserPage, error) {
	filter.Page = filter.Page.Normalize(defaultUserPageSize)
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       filter.Page.Page,
		Limit:      filter.Page.Limit,
		TotalPages: totalPages(total, filter.Page.Limit),
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*model.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil && *in.Username != "" {
		user.Username = *in.Username
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.IsOAuth {
		return apperrors.ErrFederatedAccount
	}
	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return apperrors.ErrOldPasswordMismatch
	}
	user.Password = newPassword
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UpdatePicture swaps the profile picture. The old asset is deleted first and
// a failure there aborts the swap.
func (s *userService) UpdatePicture(ctx context.Context, id uuid.UUID, asset media.Asset) (*model.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ImagePublicID != "" && user.ImagePublicID != asset.PublicID {
		if err := s.media.Delete(ctx, user.ImagePublicID); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaStore, err)
		}
	}
	user.Picture = asset.URL
	user.ImagePublicID = asset.PublicID
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update picture: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return apperrors.ErrAdminUndeletable
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// StarProduct records the star and bumps the product counter in one transaction.
func (s *userService) StarProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return s.stars.WithTransaction(ctx, func(ctx context.Context, repo repository.StarRepository) error {
		if err := repo.AdjustProductStars(ctx, productID, 1); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrProductNotFound
			}
			return err
		}
		starred, err := repo.IsStarred(ctx, userID, productID)
		if err != nil {
			return err
		}
		if starred {
			return apperrors.ErrAlreadyStarred
		}
		if err := repo.Add(ctx, userID, productID); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrAlreadyStarred
			}
			return err
		}
		return nil
	})
}

// UnstarProduct removes the star and decrements the counter in one transaction.
func (s *userService) UnstarProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return s.stars.WithTransaction(ctx, func(ctx context.Context, repo repository.StarRepository) error {
		if err := repo.AdjustProductStars(ctx, productID, -1); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrProductNotFound
			}
			return err
		}
		removed, err := repo.Remove(ctx, userID, productID)
		if err != nil {
			return err
		}
		if !removed {
			return apperrors.ErrNotStarred
		}
		return nil
	})
}

func (s *userService) IsStarred(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.stars.IsStarred(ctx, userID, productID)
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

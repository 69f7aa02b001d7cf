package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/model"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role       model.Role
	IsVerified *bool
	Page       Page
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	UpdateConsumingToken(ctx context.Context, user *model.User, token string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByToken(ctx context.Context, token string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update saves every column, running the password hook when a new
// plaintext password is pending.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateConsumingToken saves every column of user only while the stored
// one-time token still equals token. It returns gorm.ErrRecordNotFound when
// another request consumed or replaced the token first.
func (r *userRepository) UpdateConsumingToken(ctx context.Context, user *model.User, token string) error {
	res := r.db.WithContext(ctx).Model(user).
		Select("*").
		Omit("created_at").
		Where("token_verify = ?", token).
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByToken(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("token_verify = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.IsVerified != nil {
		q = q.Where("is_verified = ?", *filter.IsVerified)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := q.Order("created_at DESC").Scopes(paginate(filter.Page)).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateLastLogin touches a single column so the password hook never fires.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

// Delete removes the user together with their stars, decrementing the
// counters of the products they had starred.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		starred := tx.Model(&model.Star{}).Select("product_id").Where("user_id = ?", id)
		if err := tx.Model(&model.Product{}).
			Where("id IN (?)", starred).
			UpdateColumn("stars", gorm.Expr("stars - 1")).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Star{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

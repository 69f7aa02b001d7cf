package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

func TestUserService_Stars(t *testing.T) {
	ctx := context.Background()
	product := uuid.New()
	ana, budi := uuid.New(), uuid.New()
	stars := newMemStarRepo(product)
	svc := NewUserService(nil, stars, nil, nil)

	require.NoError(t, svc.StarProduct(ctx, ana, product))
	assert.ErrorIs(t, svc.StarProduct(ctx, ana, product), apperrors.ErrAlreadyStarred)
	assert.Equal(t, int64(1), stars.counters[product], "a rejected star leaves the counter alone")

	require.NoError(t, svc.StarProduct(ctx, budi, product))
	assert.Equal(t, stars.cardinality(product), stars.counters[product])

	starred, err := svc.IsStarred(ctx, budi, product)
	require.NoError(t, err)
	assert.True(t, starred)

	require.NoError(t, svc.UnstarProduct(ctx, ana, product))
	assert.ErrorIs(t, svc.UnstarProduct(ctx, ana, product), apperrors.ErrNotStarred)
	assert.Equal(t, int64(1), stars.counters[product])
	assert.Equal(t, stars.cardinality(product), stars.counters[product])

	assert.ErrorIs(t, svc.StarProduct(ctx, ana, uuid.New()), apperrors.ErrProductNotFound)
	assert.ErrorIs(t, svc.UnstarProduct(ctx, ana, uuid.New()), apperrors.ErrProductNotFound)
}

func TestUserService_UpdatePicture(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name          string
		current       string
		deleteErr     error
		expectedError error
		expectUpdate  bool
	}{
		{name: "first picture", current: "", expectUpdate: true},
		{name: "swap deletes the old asset", current: "uploads/old.png", expectUpdate: true},
		{name: "delete failure aborts the swap", current: "uploads/old.png", deleteErr: errors.New("s3 down"), expectedError: apperrors.ErrMediaStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			store := new(MockMediaStore)
			users.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, ImagePublicID: tt.current, Picture: "http://old"}, nil)
			if tt.current != "" {
				store.On("Delete", mock.Anything, tt.current).Return(tt.deleteErr)
			}
			if tt.expectUpdate {
				users.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			}

			svc := NewUserService(users, nil, nil, store)
			user, err := svc.UpdatePicture(context.Background(), id, media.Asset{URL: "http://new", PublicID: "uploads/new.png"})
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "http://new", user.Picture)
				assert.Equal(t, "uploads/new.png", user.ImagePublicID)
			}
			users.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "regular user",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Role: model.RoleUser}, nil)
				m.On("Delete", mock.Anything, id).Return(nil)
			},
		},
		{
			name: "admins are undeletable",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Role: model.RoleAdmin}, nil)
			},
			expectedError: apperrors.ErrAdminUndeletable,
		},
		{
			name: "missing user",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)
			err := NewUserService(users, nil, nil, nil).DeleteUser(context.Background(), id)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	local := &model.User{Email: "ana@x.io", Password: "secret1", IsVerified: true}
	google := &model.User{Email: "g@x.io", IsOAuth: true, IsVerified: true}
	require.NoError(t, users.Create(ctx, local))
	require.NoError(t, users.Create(ctx, google))
	svc := NewUserService(users, nil, nil, nil)

	assert.ErrorIs(t, svc.ChangePassword(ctx, local.ID, "wrong", "newpass1"), apperrors.ErrOldPasswordMismatch)
	assert.ErrorIs(t, svc.ChangePassword(ctx, google.ID, "", "newpass1"), apperrors.ErrFederatedAccount)
	require.NoError(t, svc.ChangePassword(ctx, local.ID, "secret1", "newpass1"))
	assert.NoError(t, svc.ChangePassword(ctx, local.ID, "newpass1", "third12"))
}

func TestUserService_GetUser(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	product := model.Product{ID: uuid.New(), Title: "Es Teh"}

	users := new(MockUserRepository)
	products := new(MockProductRepository)
	stars := newMemStarRepo(product.ID)
	require.NoError(t, stars.Add(ctx, id, product.ID))

	users.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Username: "ana"}, nil)
	products.On("FindByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]model.Product{product}, nil)

	detail, err := NewUserService(users, stars, products, nil).GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ana", detail.Username)
	require.Len(t, detail.StarredProducts, 1)
	assert.Equal(t, "Es Teh", detail.StarredProducts[0].Title)
}

func TestUserService_ListUsers(t *testing.T) {
	users := new(MockUserRepository)
	users.On("List", mock.Anything, mock.MatchedBy(func(f repository.UserFilter) bool {
		return f.Page.Page == 1 && f.Page.Limit == 10
	})).Return([]model.User{{Username: "ana"}}, int64(21), nil)

	page, err := NewUserService(users, nil, nil, nil).ListUsers(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(21), page.Total)
	assert.Len(t, page.Users, 1)
}

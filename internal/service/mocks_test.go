package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/oauth"
	"jualapa/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateConsumingToken(ctx context.Context, user *model.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	args := m.Called(ctx, id, verified)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Create(ctx context.Context, item *model.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalogRepository) Update(ctx context.Context, item *model.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogItem, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindByIDs(ctx context.Context, kind model.CatalogKind, ids []uuid.UUID) ([]model.CatalogItem, error) {
	args := m.Called(ctx, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) List(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogItem, error) {
	args := m.Called(ctx, kind, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) UpsertByName(ctx context.Context, item *model.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockMediaStore is a mock implementation of media.Store.
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, in media.Upload) (media.Asset, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(media.Asset), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

// MockSender is a mock implementation of mail.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

// MockProvider is a mock implementation of oauth.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockProvider) FetchProfile(ctx context.Context, code string) (*oauth.Profile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Profile), args.Error(1)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/model"
	"jualapa/internal/repository"
)

// memUserRepo is an in-memory UserRepository that runs the model hooks the
// way gorm would.
type memUserRepo struct {
	byID map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[uuid.UUID]*model.User{}}
}

func (r *memUserRepo) store(u *model.User) {
	cp := *u
	r.byID[u.ID] = &cp
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	r.store(u)
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	r.store(u)
	return nil
}

func (r *memUserRepo) UpdateConsumingToken(ctx context.Context, u *model.User, token string) error {
	stored, ok := r.byID[u.ID]
	if !ok || stored.TokenVerify == nil || *stored.TokenVerify != token {
		return gorm.ErrRecordNotFound
	}
	return r.Update(ctx, u)
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range r.byID {
		if u.TokenVerify != nil && *u.TokenVerify == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(context.Context, repository.UserFilter) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.byID {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

type starKey struct {
	user, product uuid.UUID
}

// memStarRepo keeps star rows and product counters. WithTransaction works on
// a copy and only publishes it when fn succeeds.
type memStarRepo struct {
	stars    map[starKey]bool
	counters map[uuid.UUID]int64
}

func newMemStarRepo(products ...uuid.UUID) *memStarRepo {
	r := &memStarRepo{stars: map[starKey]bool{}, counters: map[uuid.UUID]int64{}}
	for _, p := range products {
		r.counters[p] = 0
	}
	return r
}

func (r *memStarRepo) IsStarred(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	return r.stars[starKey{userID, productID}], nil
}

func (r *memStarRepo) Add(_ context.Context, userID, productID uuid.UUID) error {
	k := starKey{userID, productID}
	if r.stars[k] {
		return gorm.ErrDuplicatedKey
	}
	r.stars[k] = true
	return nil
}

func (r *memStarRepo) Remove(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	k := starKey{userID, productID}
	if !r.stars[k] {
		return false, nil
	}
	delete(r.stars, k)
	return true, nil
}

func (r *memStarRepo) AdjustProductStars(_ context.Context, productID uuid.UUID, delta int) error {
	if _, ok := r.counters[productID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.counters[productID] += int64(delta)
	return nil
}

func (r *memStarRepo) ListProductIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for k := range r.stars {
		if k.user == userID {
			ids = append(ids, k.product)
		}
	}
	return ids, nil
}

func (r *memStarRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.StarRepository) error) error {
	tx := &memStarRepo{stars: map[starKey]bool{}, counters: map[uuid.UUID]int64{}}
	for k, v := range r.stars {
		tx.stars[k] = v
	}
	for k, v := range r.counters {
		tx.counters[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.stars, r.counters = tx.stars, tx.counters
	return nil
}

func (r *memStarRepo) cardinality(productID uuid.UUID) int64 {
	var n int64
	for k := range r.stars {
		if k.product == productID {
			n++
		}
	}
	return n
}

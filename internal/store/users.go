package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fieldtrace/fieldtrace/internal/model"
)

// CreateUser registers a new identity. Users carry no audit envelope, so no
// actor is needed; the first user is how every other record gets one.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = s.now()
	}
	u.IsActive = true

	if err := s.validate.StructCtx(ctx, u); err != nil {
		return invalid(model.TableUsers, err)
	}
	return translateError(s.db.WithContext(ctx).Create(u).Error)
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return Get[model.User](ctx, s, id)
}

// FindUser loads a user by username.
func (s *Store) FindUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a user that no record names as creator or updater.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.Delete(ctx, &model.User{ID: id})
}

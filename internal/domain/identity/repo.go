package identity

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("access token not found")
	ErrDuplicateUsername  = errors.New("a user with that username already exists")
	ErrDuplicateTokenName = errors.New("user already has a token with that name")
	ErrDuplicateKey       = errors.New("access token key collision")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, t *AccessToken) error
	GetByKeyHash(ctx context.Context, hash string) (*AccessToken, error)
	ListByUser(ctx context.Context, userID int64) ([]*AccessToken, error)
	DeleteByName(ctx context.Context, userID int64, name string) error
}

package identity

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/Stikerz/numan/internal/platform/auth"
)

const (
	maxUsernameLen  = 150
	maxTokenNameLen = 64
)

// usernamePattern allows letters, digits and @.+-_ only.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type Service struct {
	users  UserRepository
	tokens TokenRepository
}

func NewService(users UserRepository, tokens TokenRepository) *Service {
	return &Service{users: users, tokens: tokens}
}

func (s *Service) CreateUser(ctx context.Context, username, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apierr.Validation("username is required")
	}
	if len(username) > maxUsernameLen {
		return nil, apierr.Validationf("username must be at most %d characters", maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return nil, apierr.Validation("username may contain only letters, numbers, and @/./+/-/_ characters")
	}

	u := &User{Username: username, Email: strings.TrimSpace(email), IsActive: true}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// IssueToken creates a named token for username and returns it together
// with the raw key. The key cannot be recovered later.
func (s *Service) IssueToken(ctx context.Context, username, name string) (*AccessToken, string, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apierr.Validation("token name is required")
	}
	if len(name) > maxTokenNameLen {
		return nil, "", apierr.Validationf("token name must be at most %d characters", maxTokenNameLen)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}

	key, err := auth.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	t := &AccessToken{
		UserID:    u.ID,
		Name:      name,
		KeyHash:   auth.HashKey(key),
		KeyPrefix: auth.KeyPrefix(key),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, "", err
	}
	return t, key, nil
}

func (s *Service) ListTokens(ctx context.Context, username string) ([]*AccessToken, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return s.tokens.ListByUser(ctx, u.ID)
}

// RevokeToken deletes the named token. Requests presenting its key fail
// authentication from then on.
func (s *Service) RevokeToken(ctx context.Context, username, name string) error {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	return s.tokens.DeleteByName(ctx, u.ID, strings.TrimSpace(name))
}

// ResolveToken implements auth.TokenResolver.
func (s *Service) ResolveToken(ctx context.Context, key string) (auth.Principal, error) {
	if key == "" {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	t, err := s.tokens.GetByKeyHash(ctx, auth.HashKey(key))
	if errors.Is(err, ErrTokenNotFound) {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.Principal{}, err
	}

	u, err := s.users.GetByID(ctx, t.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.Principal{}, err
	}
	if !u.IsActive {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	return auth.Principal{UserID: u.ID, Username: u.Username}, nil
}

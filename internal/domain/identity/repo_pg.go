package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stikerz/numan/internal/platform/db"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const userCols = `id, username, email, is_active, date_joined`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.DateJoined); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (username, email, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, date_joined`,
		u.Username, u.Email, u.IsActive,
	).Scan(&u.ID, &u.DateJoined)
	if db.IsUniqueViolation(err, "users_username_key") {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

// =========== Token Repository ===========

type tokenRepoPG struct{ pool *pgxpool.Pool }

func NewTokenRepoPG(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepoPG{pool: pool}
}

func (r *tokenRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const tokenCols = `id, user_id, name, key_hash, key_prefix, created`

func scanToken(row pgx.Row) (*AccessToken, error) {
	var t AccessToken
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.KeyHash, &t.KeyPrefix, &t.Created); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepoPG) Create(ctx context.Context, t *AccessToken) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO access_tokens (user_id, name, key_hash, key_prefix)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created`,
		t.UserID, t.Name, t.KeyHash, t.KeyPrefix,
	).Scan(&t.ID, &t.Created)
	switch {
	case db.IsUniqueViolation(err, "access_tokens_user_id_name_key"):
		return ErrDuplicateTokenName
	case db.IsUniqueViolation(err, "access_tokens_key_hash_key"):
		return ErrDuplicateKey
	case db.IsForeignKeyViolation(err, "access_tokens_user_id_fkey"):
		return ErrUserNotFound
	case err != nil:
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

func (r *tokenRepoPG) GetByKeyHash(ctx context.Context, hash string) (*AccessToken, error) {
	return scanToken(r.conn(ctx).QueryRow(ctx, `SELECT `+tokenCols+` FROM access_tokens WHERE key_hash = $1`, hash))
}

func (r *tokenRepoPG) ListByUser(ctx context.Context, userID int64) ([]*AccessToken, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+tokenCols+` FROM access_tokens WHERE user_id = $1 ORDER BY created, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list access tokens: %w", err)
	}
	defer rows.Close()

	var items []*AccessToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *tokenRepoPG) DeleteByName(ctx context.Context, userID int64, name string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM access_tokens WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

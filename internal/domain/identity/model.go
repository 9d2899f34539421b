package identity

import "time"

// User is an account that owns orders and access tokens.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// AccessToken binds a named key to one user. Only the SHA-256 of the key is
// stored; KeyPrefix is kept so operators can tell tokens apart.
type AccessToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"key_prefix"`
	Created   time.Time `json:"created"`
}

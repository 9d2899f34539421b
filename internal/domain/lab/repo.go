package lab

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("lab not found")
	ErrDuplicateName = errors.New("a lab with that name already exists")
)

type Repository interface {
	Create(ctx context.Context, l *Lab) error
	GetByID(ctx context.Context, id int64) (*Lab, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// FindByCountry matches country case-insensitively and, when city is
	// non-empty, city case-insensitively. Results are in insertion order.
	FindByCountry(ctx context.Context, country, city string) ([]*Lab, error)
}

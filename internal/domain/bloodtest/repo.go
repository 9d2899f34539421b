package bloodtest

import (
	"context"
	"errors"
)

// ErrLabNotFound is returned when an order references a lab that does not exist.
var ErrLabNotFound = errors.New("lab not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	// ListByUser returns the user's orders oldest first.
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
}

// LabChecker reports whether a lab id refers to an existing lab.
type LabChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

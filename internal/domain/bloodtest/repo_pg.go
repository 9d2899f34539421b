package bloodtest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stikerz/numan/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const orderCols = `id, user_id, lab_id, results, ready, timestamp`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.UserID, &o.LabID, &o.Results, &o.Ready, &o.Timestamp); err != nil {
		return nil, err
	}
	if o.Results == nil {
		o.Results = map[string]*float64{}
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	if o.Results == nil {
		o.Results = map[string]*float64{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO blood_test_orders (user_id, lab_id, results, ready)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`,
		o.UserID, o.LabID, o.Results, o.Ready,
	).Scan(&o.ID, &o.Timestamp)
	if db.IsForeignKeyViolation(err, "blood_test_orders_lab_id_fkey") {
		return ErrLabNotFound
	}
	if err != nil {
		return fmt.Errorf("insert blood test order: %w", err)
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM blood_test_orders WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list blood test orders: %w", err)
	}
	defer rows.Close()

	items := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood test order: %w", err)
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

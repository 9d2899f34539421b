package lab

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

const labCols = `id, name, address, address_2, city, post_code, country, email, number`

func scanLab(row pgx.Row) (*Lab, error) {
	var l Lab
	err := row.Scan(&l.ID, &l.Name, &l.Address, &l.Address2, &l.City,
		&l.PostCode, &l.Country, &l.Email, &l.Number)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) Create(ctx context.Context, l *Lab) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO labs (name, address, address_2, city, post_code, country, email, number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		l.Name, l.Address, l.Address2, l.City, l.PostCode, l.Country, l.Email, l.Number,
	).Scan(&l.ID)
	if db.IsUniqueViolation(err, "labs_name_key") {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert lab: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Lab, error) {
	return scanLab(r.conn(ctx).QueryRow(ctx, `SELECT `+labCols+` FROM labs WHERE id = $1`, id))
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM labs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lab %d: %w", id, err)
	}
	return exists, nil
}

func (r *repoPG) FindByCountry(ctx context.Context, country, city string) ([]*Lab, error) {
	query := `SELECT ` + labCols + ` FROM labs WHERE UPPER(country) = UPPER($1)`
	args := []interface{}{country}
	if city != "" {
		query += ` AND LOWER(city) = LOWER($2)`
		args = append(args, city)
	}
	query += ` ORDER BY id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find labs: %w", err)
	}
	defer rows.Close()

	items := []*Lab{}
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

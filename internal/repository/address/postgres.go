package address

import (
	"context"
	"errors"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	const q = `
INSERT INTO addresses (user_id, recipient, line1, line2, city, region, postal_code, country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text, created_at
`
	out := a
	err := r.pool.QueryRow(ctx, q,
		a.UserID, a.Recipient, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	const q = `
SELECT id::text, user_id::text, recipient, line1, line2, city, region, postal_code, country, created_at
FROM addresses
WHERE id = $1
`
	var a domain.Address
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.UserID, &a.Recipient, &a.Line1, &a.Line2, &a.City, &a.Region, &a.PostalCode, &a.Country, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	const q = `
SELECT id::text, user_id::text, recipient, line1, line2, city, region, postal_code, country, created_at
FROM addresses
WHERE user_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Recipient, &a.Line1, &a.Line2, &a.City, &a.Region, &a.PostalCode, &a.Country, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Upsert(ctx context.Context, u domain.User) (bool, error) {
	const q = `
INSERT INTO users (id, email, phone, role, email_verified, referral_code)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING
`
	role := u.Role
	if role == "" {
		role = domain.RoleBuyer
	}
	cmd, err := r.pool.Exec(ctx, q,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.Phone,
		role,
		u.EmailVerified,
		u.ReferralCode,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Same email under a different id; the id conflict itself is
			// absorbed by DO NOTHING.
			return false, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: upsert id=%s error=%v", u.ID, err)
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, email, phone, role, email_verified, referral_code, created_at
FROM users
WHERE id = $1
`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.EmailVerified,
		&u.ReferralCode,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

package user

import (
	"context"

	"marketplace-backend/internal/domain"
)

// Repository persists and fetches the local user rows mirroring external
// identities.
type Repository interface {
	// Upsert inserts the row if missing. It reports whether a new row was
	// written; an existing row with the same id is not an error.
	Upsert(ctx context.Context, u domain.User) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

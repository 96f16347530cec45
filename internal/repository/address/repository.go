package address

import (
	"context"

	"marketplace-backend/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	GetByID(ctx context.Context, id string) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}

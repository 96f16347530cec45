package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"marketplace-backend/internal/domain"
)

type userStore interface {
	Upsert(ctx context.Context, u domain.User) (bool, error)
}

type providerClient interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	InsertUserRow(ctx context.Context, u domain.User) error
}

// Resolver guarantees a local users row exists for an external identity
// before any foreign-key-dependent write. The identity can exist upstream
// before it is visible here, so creation is an idempotent upsert keyed on the
// external id, retried on transient failure, with the provider's REST API as
// the final fallback write path.
type Resolver struct {
	users    userStore
	provider providerClient
	logger   *log.Logger
	delays   []time.Duration
}

func NewResolver(users userStore, provider providerClient, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{
		users:    users,
		provider: provider,
		logger:   logger,
		delays:   []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
	}
}

// EnsureUser makes sure a users row with ident.ID exists. A row already in
// place, created by us or by a concurrent request, is success. When every
// path fails the error is returned so callers fail fast instead of surfacing
// a raw foreign-key violation later.
func (r *Resolver) EnsureUser(ctx context.Context, ident domain.User) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		created, err := r.users.Upsert(ctx, ident)
		if err == nil {
			if created {
				r.logger.Printf("identity: created user row id=%s", ident.ID)
			}
			return nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Email held by a different id; nothing retries can fix.
			return err
		}
		lastErr = err
		if attempt >= len(r.delays) {
			break
		}
		r.logger.Printf("identity: upsert user id=%s attempt=%d err=%v", ident.ID, attempt+1, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delays[attempt]):
		}
	}

	if r.provider != nil {
		// The provider's record is the source of truth; refresh the claims
		// before writing through its REST path. Stale local claims are better
		// than no row, so a failed fetch falls back to what the token carried.
		row := ident
		if remote, err := r.provider.GetUser(ctx, ident.ID); err == nil {
			row = *remote
		} else if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("identity: provider get user id=%s err=%v", ident.ID, err)
		}

		err := r.provider.InsertUserRow(ctx, row)
		if err == nil || errors.Is(err, domain.ErrAlreadyExists) {
			r.logger.Printf("identity: user row id=%s written via provider fallback", ident.ID)
			return nil
		}
		lastErr = err
	}
	return lastErr
}

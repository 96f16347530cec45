package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-backend/internal/domain"
)

type stubUserStore struct {
	calls   int
	errs    []error
	created bool
}

func (s *stubUserStore) Upsert(_ context.Context, _ domain.User) (bool, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return false, err
		}
	}
	return s.created, nil
}

type stubProvider struct {
	calls    int
	err      error
	remote   *domain.User
	getErr   error
	inserted domain.User
}

func (s *stubProvider) GetUser(_ context.Context, _ string) (*domain.User, error) {
	if s.remote == nil {
		if s.getErr != nil {
			return nil, s.getErr
		}
		return nil, domain.ErrNotFound
	}
	return s.remote, s.getErr
}

func (s *stubProvider) InsertUserRow(_ context.Context, u domain.User) error {
	s.calls++
	s.inserted = u
	return s.err
}

func newTestResolver(users *stubUserStore, provider *stubProvider) *Resolver {
	r := NewResolver(users, provider, nil)
	r.delays = []time.Duration{time.Millisecond, time.Millisecond}
	return r
}

func TestEnsureUser_UpsertSucceeds(t *testing.T) {
	users := &stubUserStore{created: true}
	provider := &stubProvider{}
	r := newTestResolver(users, provider)

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if users.calls != 1 {
		t.Fatalf("expected 1 upsert, got %d", users.calls)
	}
	if provider.calls != 0 {
		t.Fatalf("provider fallback should not run, got %d calls", provider.calls)
	}
}

func TestEnsureUser_RetriesTransientErrors(t *testing.T) {
	users := &stubUserStore{errs: []error{errors.New("connection reset"), errors.New("timeout")}}
	r := newTestResolver(users, &stubProvider{})

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if users.calls != 3 {
		t.Fatalf("expected 3 upsert attempts, got %d", users.calls)
	}
}

func TestEnsureUser_EmailConflictFailsFast(t *testing.T) {
	users := &stubUserStore{errs: []error{domain.ErrAlreadyExists}}
	provider := &stubProvider{}
	r := newTestResolver(users, provider)

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists to surface, got %v", err)
	}
	if users.calls != 1 {
		t.Fatalf("email conflict must not be retried, got %d calls", users.calls)
	}
	if provider.calls != 0 {
		t.Fatalf("provider fallback must not run on email conflict, got %d calls", provider.calls)
	}
}

func TestEnsureUser_ProviderFallback(t *testing.T) {
	dbDown := errors.New("db unavailable")
	users := &stubUserStore{errs: []error{dbDown, dbDown, dbDown}}
	provider := &stubProvider{}
	r := newTestResolver(users, provider)

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); err != nil {
		t.Fatalf("expected provider fallback to succeed, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestEnsureUser_FallbackRefreshesClaims(t *testing.T) {
	dbDown := errors.New("db unavailable")
	users := &stubUserStore{errs: []error{dbDown, dbDown, dbDown}}
	provider := &stubProvider{
		remote: &domain.User{ID: "user-1", Email: "fresh@example.com", Role: domain.RoleSupplier, EmailVerified: true},
	}
	r := newTestResolver(users, provider)

	stale := domain.User{ID: "user-1", Email: "stale@example.com", Role: domain.RoleBuyer}
	if err := r.EnsureUser(context.Background(), stale); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if provider.inserted.Email != "fresh@example.com" || provider.inserted.Role != domain.RoleSupplier {
		t.Fatalf("expected provider record to win over token claims, inserted %+v", provider.inserted)
	}
}

func TestEnsureUser_FallbackKeepsClaimsWhenFetchFails(t *testing.T) {
	dbDown := errors.New("db unavailable")
	users := &stubUserStore{errs: []error{dbDown, dbDown, dbDown}}
	provider := &stubProvider{getErr: errors.New("provider 500")}
	r := newTestResolver(users, provider)

	ident := domain.User{ID: "user-1", Email: "token@example.com"}
	if err := r.EnsureUser(context.Background(), ident); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if provider.inserted.Email != "token@example.com" {
		t.Fatalf("expected token claims to be written, inserted %+v", provider.inserted)
	}
}

func TestEnsureUser_ProviderDuplicateIsSuccess(t *testing.T) {
	dbDown := errors.New("db unavailable")
	users := &stubUserStore{errs: []error{dbDown, dbDown, dbDown}}
	provider := &stubProvider{err: domain.ErrAlreadyExists}
	r := newTestResolver(users, provider)

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); err != nil {
		t.Fatalf("duplicate row means the user exists, got %v", err)
	}
}

func TestEnsureUser_TotalFailure(t *testing.T) {
	dbDown := errors.New("db unavailable")
	users := &stubUserStore{errs: []error{dbDown, dbDown, dbDown}}
	provider := &stubProvider{err: errors.New("provider 500")}
	r := newTestResolver(users, provider)

	if err := r.EnsureUser(context.Background(), domain.User{ID: "user-1"}); err == nil {
		t.Fatal("expected error when every path fails")
	}
}

func TestEnsureUser_ContextCancelled(t *testing.T) {
	users := &stubUserStore{errs: []error{errors.New("slow"), errors.New("slow"), errors.New("slow")}}
	r := NewResolver(users, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.EnsureUser(ctx, domain.User{ID: "user-1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"marketplace-backend/internal/domain"
)

// Provider talks to the external auth provider's administrative REST surface.
// It is the source of truth for identities and the fallback write path into
// the users table when the direct upsert cannot reach the database.
type Provider struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	logger     *log.Logger
}

func NewProvider(baseURL, serviceKey string, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Provider{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// GetUser fetches the provider's record for an external user id.
func (p *Provider) GetUser(ctx context.Context, id string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/admin/users/"+id, nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("provider get user: status %d", resp.StatusCode)
	}

	var u domain.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUserRow writes a users row through the provider's REST API. A
// duplicate response means the row already exists and is treated as success
// by callers.
func (p *Provider) InsertUserRow(ctx context.Context, u domain.User) error {
	body, err := json.Marshal(map[string]interface{}{
		"id":             u.ID,
		"email":          u.Email,
		"phone":          u.Phone,
		"role":           u.Role,
		"email_verified": u.EmailVerified,
		"referral_code":  u.ReferralCode,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rest/v1/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return domain.ErrAlreadyExists
	default:
		p.logger.Printf("identity provider: insert user id=%s status=%d", u.ID, resp.StatusCode)
		return fmt.Errorf("provider insert user: status %d", resp.StatusCode)
	}
}

func (p *Provider) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	req.Header.Set("apikey", p.serviceKey)
}

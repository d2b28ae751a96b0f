// Package leadconnector is the typed client for the external
// contact-management API consumed by the lead import and sync flows. The API
// is treated as an opaque HTTP service; credentials are injected via
// configuration and every call carries the client timeout.
package leadconnector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
)

// ContactClient is the surface the lead service depends on.
type ContactClient interface {
	GetContact(ctx context.Context, contactID string) (*domain.Contact, error)
	GetContacts(ctx context.Context, limit, offset int) ([]domain.Contact, int, error)
	SearchContacts(ctx context.Context, query string) ([]domain.Contact, error)
	CreateContact(ctx context.Context, contact domain.Contact) (*domain.Contact, error)
	UpdateContact(ctx context.Context, contactID string, contact domain.Contact) (*domain.Contact, error)
}

// Client talks HTTP to the contact service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ ContactClient = (*Client)(nil)

// New builds a client with a bounded request timeout. An unbounded client
// would let a stalled upstream pin request handlers indefinitely.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type contactEnvelope struct {
	Contact  *domain.Contact  `json:"contact"`
	Contacts []domain.Contact `json:"contacts"`
	Total    int              `json:"total"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*contactEnvelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode contact payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build contact request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: contact service returned %d", apperrors.ErrUpstream, resp.StatusCode)
	}

	var env contactEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", apperrors.ErrUpstream, err)
	}
	return &env, nil
}

func (c *Client) GetContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	env, err := c.do(ctx, http.MethodGet, "/"+contactID, nil, nil)
	if err != nil {
		return nil, err
	}
	if env.Contact != nil {
		return env.Contact, nil
	}
	if len(env.Contacts) > 0 {
		return &env.Contacts[0], nil
	}
	return nil, apperrors.ErrNotFound
}

func (c *Client) GetContacts(ctx context.Context, limit, offset int) ([]domain.Contact, int, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	env, err := c.do(ctx, http.MethodGet, "", q, nil)
	if err != nil {
		return nil, 0, err
	}
	total := env.Total
	if total == 0 {
		total = len(env.Contacts)
	}
	return env.Contacts, total, nil
}

func (c *Client) SearchContacts(ctx context.Context, query string) ([]domain.Contact, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", "50")
	env, err := c.do(ctx, http.MethodGet, "/search", q, nil)
	if err != nil {
		return nil, err
	}
	return env.Contacts, nil
}

func (c *Client) CreateContact(ctx context.Context, contact domain.Contact) (*domain.Contact, error) {
	env, err := c.do(ctx, http.MethodPost, "", nil, contact)
	if err != nil {
		return nil, err
	}
	if env.Contact == nil {
		return &contact, nil
	}
	return env.Contact, nil
}

func (c *Client) UpdateContact(ctx context.Context, contactID string, contact domain.Contact) (*domain.Contact, error) {
	env, err := c.do(ctx, http.MethodPut, "/"+contactID, nil, contact)
	if err != nil {
		return nil, err
	}
	if env.Contact == nil {
		return &contact, nil
	}
	return env.Contact, nil
}

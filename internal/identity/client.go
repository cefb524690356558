package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// Client resolves tokens against the auth collaborator's identity endpoint.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a resolver for the auth service at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &Client{httpClient: client, logger: logger}
}

var _ Resolver = (*Client)(nil)

type identityResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// Resolve calls GET /auth/api/v1/identity with the bearer token.
func (c *Client) Resolve(ctx context.Context, token string) (domain.Actor, error) {
	if token == "" {
		return domain.Actor{}, ErrUnauthenticated
	}

	var out identityResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		Get("/auth/api/v1/identity")
	if err != nil {
		return domain.Actor{}, fmt.Errorf("resolve identity: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return domain.Actor{}, ErrUnauthenticated
	}
	if resp.IsError() {
		return domain.Actor{}, fmt.Errorf("resolve identity: auth service returned %d", resp.StatusCode())
	}

	actor := domain.Actor{ID: out.ID, Role: domain.Role(out.Role), Name: out.Name}
	if actor.ID == "" || !domain.ValidRole(actor.Role) {
		c.logger.Warn("auth service returned malformed identity",
			zap.String("id", out.ID), zap.String("role", out.Role))
		return domain.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

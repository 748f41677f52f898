// Package firebase implements the Authenticator port against the
// Identity Toolkit REST API (email/password sign-in and sign-up).
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/cloudvision/internal/domain/identity"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com"

// Client talks to the identity service. Each call is one remote round
// trip; there are no retries and no token caching.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ identity.Authenticator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the identity endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// New creates an identity client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("identity api key required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type authRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.User, error) {
	return c.call(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*identity.User, error) {
	return c.call(ctx, "accounts:signUp", email, password)
}

func (c *Client) call(ctx context.Context, endpoint, email, password string) (*identity.User, error) {
	body, err := json.Marshal(authRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Message != "" {
			if classified := identity.Classify(payload.Error.Message); classified != nil {
				return nil, classified
			}
			return nil, fmt.Errorf("%s: %s", endpoint, payload.Error.Message)
		}
		return nil, fmt.Errorf("%s returned %d", endpoint, resp.StatusCode)
	}

	var payload authResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.LocalID == "" {
		return nil, fmt.Errorf("%s: response missing localId", endpoint)
	}
	return &identity.User{UID: payload.LocalID, Email: payload.Email}, nil
}

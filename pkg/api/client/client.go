package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the photobook auth API. The held Session
// supplies the bearer token for protected calls and tracks signed-in state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithSession attaches an existing session, e.g. one restored from disk.
func WithSession(s *Session) Option {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    NewSession(),
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// Session exposes the client's session for subscription and persistence.
func (c *Client) Session() *Session {
	return c.session
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// do performs one JSON round-trip. The session token, when held, is attached
// as a bearer credential; otherwise the request goes out unauthenticated and
// the server rejects protected routes.
func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// User reflects API user payloads.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse captures the payload emitted by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// RegisterResponse captures the registration acknowledgment.
type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// MessageResponse captures plain acknowledgments such as logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account. No token is issued; call Login next.
func (c *Client) Register(ctx context.Context, name, email, password, confirmation string) (RegisterResponse, error) {
	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": confirmation,
	}
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &resp); err != nil {
		return RegisterResponse{}, err
	}
	return resp, nil
}

// Login exchanges credentials for a token and signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return TokenResponse{}, err
	}
	c.session.SetToken(resp.AccessToken)
	return resp, nil
}

// Logout invalidates the held token server-side and signs the session out.
func (c *Client) Logout(ctx context.Context) (MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, &resp); err != nil {
		return MessageResponse{}, err
	}
	c.session.Clear()
	return resp, nil
}

// Refresh rotates the held token for a fresh one.
func (c *Client) Refresh(ctx context.Context) (TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, &resp); err != nil {
		return TokenResponse{}, err
	}
	c.session.SetToken(resp.AccessToken)
	return resp, nil
}

// Profile fetches the authenticated user's record.
func (c *Client) Profile(ctx context.Context) (User, error) {
	var resp User
	if err := c.do(ctx, http.MethodGet, "/api/auth/user-profile", nil, &resp); err != nil {
		return User{}, err
	}
	return resp, nil
}

package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mkalinin42/fastvuln/internal/models"
)

// Credentials is the account data the checker registers with and later
// stores in the chain ledger. Email is dropped before persisting since
// login never needs it.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Client drives one account's session against the profile service. Each
// phase invocation gets a fresh Client so cookies never leak between
// independent trials.
type Client struct {
	http    *http.Client
	baseURL string
	log     *zap.Logger
}

// NewClient creates a Client for the service at baseURL. Every request
// is bounded by timeout; the session cookie issued on login is kept in
// an in-memory jar.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		http:    &http.Client{Jar: jar, Timeout: timeout},
		baseURL: baseURL,
		log:     log,
	}, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	c.log.Info(">> register", zap.String("username", creds.Username))
	return c.exchange(ctx, http.MethodPost, "/register", creds, nil)
}

// Login authenticates with username and password only; the service
// never re-validates email after registration.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	c.log.Info(">> login", zap.String("username", creds.Username))
	payload := Credentials{Username: creds.Username, Password: creds.Password}
	return c.exchange(ctx, http.MethodPost, "/login", payload, nil)
}

// GetProfile fetches the profile of the logged-in account.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	c.log.Info(">> profile")
	var profile models.Profile
	if err := c.exchange(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// PutProfile applies a profile update to the logged-in account.
func (c *Client) PutProfile(ctx context.Context, update models.ProfileUpdate) error {
	c.log.Info(">> put_profile")
	return c.exchange(ctx, http.MethodPut, "/profile", update, nil)
}

// Backdoor fetches a profile by username through the unauthenticated
// lookup endpoint.
func (c *Client) Backdoor(ctx context.Context, username string) (*models.Profile, error) {
	c.log.Info(">> backdoor", zap.String("username", username))
	var profile models.Profile
	if err := c.exchange(ctx, http.MethodGet, "/backdoor?username="+url.QueryEscape(username), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// exchange performs one HTTP round trip. Any transport failure, non-2xx
// status or undecodable body is returned as a plain error for the phase
// to wrap into its mumble fault.
func (c *Client) exchange(ctx context.Context, method, path string, body, dest any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Info("<< response", zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

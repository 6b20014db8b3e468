// Package remote implements the appointment provider against the REST API
// served by internal/transport/http (or any server speaking the same
// contract).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/store"
)

const (
	DefaultTimeout   = 10 * time.Second
	appointmentsPath = "/appointments"
	maxErrorBody     = 64 << 10
)

var _ store.AppointmentProvider = (*Client)(nil)

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// StatusError is returned for any non-success response other than the 404s
// the provider contract treats as "not found".
type StatusError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(slog.String("component", "store.remote"))
	return c
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (c *Client) GetAll(ctx context.Context) ([]domain.Appointment, error) {
	var out envelope[[]domain.Appointment]
	if _, err := c.do(ctx, http.MethodGet, appointmentsPath, nil, &out, false); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []domain.Appointment{}, nil
	}
	return out.Data, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (domain.Appointment, bool, error) {
	var out envelope[domain.Appointment]
	found, err := c.do(ctx, http.MethodGet, itemPath(id), nil, &out, true)
	if err != nil || !found {
		return domain.Appointment{}, false, err
	}
	return out.Data, true, nil
}

func (c *Client) Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error) {
	var out envelope[domain.Appointment]
	if _, err := c.do(ctx, http.MethodPost, appointmentsPath, in, &out, false); err != nil {
		return domain.Appointment{}, err
	}
	return out.Data, nil
}

func (c *Client) Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
	var out envelope[domain.Appointment]
	found, err := c.do(ctx, http.MethodPatch, itemPath(id), patch, &out, true)
	if err != nil || !found {
		return domain.Appointment{}, false, err
	}
	return out.Data, true, nil
}

func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, nil, true)
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	var out envelope[struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}]
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return "", time.Time{}, err
	}
	return out.Data.Token, out.Data.ExpiresAt, nil
}

func itemPath(id string) string {
	return appointmentsPath + "/" + url.PathEscape(id)
}

// do performs one request bounded by the client timeout. When notFoundOK is
// set a 404 yields (false, nil) instead of a StatusError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, notFoundOK bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return false, fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.Warn("request timed out", slog.String("method", method), slog.String("path", path), slog.Duration("timeout", c.timeout))
			return false, fmt.Errorf("%s %s: %w", method, path, store.ErrTimeout)
		}
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFoundOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		sErr := &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) == nil {
			sErr.Message = msg.Message
		}
		c.log.Warn("request failed", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))
		return false, sErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("%s %s: %w", method, path, store.ErrTimeout)
		}
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// Package client talks to the campus-planner HTTP API on behalf of the
// command line tools.
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

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/focustimer"
)

const defaultTimeout = 15 * time.Second

// ErrNotLoggedIn is returned by calls that need a token when none is set.
var ErrNotLoggedIn = errors.New("client: not logged in")

// APIError is a non-2xx response decoded from the API error body.
type APIError struct {
	Status  int
	Code    string            `json:"error_code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, reason := range e.Fields {
			parts = append(parts, field+": "+reason)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// Client is a small JSON client for the API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	authed  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithToken authenticates every request with the bearer token. The token's
// own transport wraps whatever client was configured before it.
func WithToken(token *oauth2.Token) Option {
	return func(c *Client) {
		if token == nil || token.AccessToken == "" {
			return
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
		c.authed = true
	}
}

// New parses baseURL and applies opts in order.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse api base url")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("api base url %q must be absolute", baseURL)
	}
	c := &Client{baseURL: parsed, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: resp.Token, TokenType: "Bearer", Expiry: resp.ExpiresAt}, nil
}

type focusSessionRequest struct {
	TaskID    *string            `json:"taskId,omitempty"`
	Duration  int                `json:"duration"`
	Type      domain.SessionKind `json:"type"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
}

// RecordFocusSession posts a completed timer run. It satisfies
// focustimer.SessionRecorder.
func (c *Client) RecordFocusSession(ctx context.Context, session focustimer.Session) error {
	if !c.authed {
		return ErrNotLoggedIn
	}
	return c.do(ctx, http.MethodPost, "/v1/focus/sessions", focusSessionRequest{
		TaskID:    session.TaskRef,
		Duration:  session.DurationMinutes,
		Type:      session.Kind,
		StartTime: session.Start,
		EndTime:   session.End,
	}, nil)
}

// Today is the focus progress for the current day.
type Today struct {
	Date         string `json:"date"`
	TotalMinutes int    `json:"totalMinutes"`
	DailyGoal    int    `json:"dailyGoal"`
}

// FocusToday fetches today's focus minutes and the daily goal.
func (c *Client) FocusToday(ctx context.Context) (Today, error) {
	if !c.authed {
		return Today{}, ErrNotLoggedIn
	}
	var today Today
	err := c.do(ctx, http.MethodGet, "/v1/focus/today", nil, &today)
	return today, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

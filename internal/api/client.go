// Package api is the client for the Symone gateway REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"symonectl/internal/session"
)

const maxBody = 4 << 20

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *session.Manager
	Logger  *slog.Logger

	// OnMaintenance is invoked whenever a response is 503.
	OnMaintenance func()

	Now func() time.Time
}

// NewClient builds a client for baseURL. No client-level timeout is set;
// callers bound requests through their context.
func NewClient(baseURL string, sess *session.Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Session: sess,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPost, path, in, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPut, path, in, out)
}

func (c *Client) patch(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) del(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

// getPublic sends no credentials, so a stale session neither blocks the
// request nor gets cleared by it.
func (c *Client) getPublic(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out, false)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, method, path, in, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any, authed bool) error {
	token := ""
	if c.Session != nil && authed {
		token = c.Session.Token()
		if token != "" && c.Session.Expired(c.now()) {
			return c.forceLogout(ctx, http.StatusUnauthorized, "token expired")
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if token != "" {
		if c.Session.Role() == session.RoleAdmin {
			req.Header.Set("X-Admin-Token", token)
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	res, err := httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Err: err}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return &NetworkError{Err: err}
	}
	c.Logger.Debug("api call", "method", method, "path", path, "status", res.StatusCode, "request_id", reqID)

	if res.StatusCode/100 != 2 {
		msg := errorMessage(raw)
		if res.StatusCode == http.StatusServiceUnavailable {
			c.Logger.Warn("backend reports maintenance", "path", path)
			if c.OnMaintenance != nil {
				c.OnMaintenance()
			}
		}
		if c.Session != nil && token != "" && isTokenFailure(res.StatusCode, msg) {
			return c.forceLogout(ctx, res.StatusCode, msg)
		}
		return &Error{Status: res.StatusCode, Message: msg, Body: raw}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) forceLogout(ctx context.Context, status int, msg string) error {
	c.Logger.Warn("session rejected, clearing credentials", "role", c.Session.Role(), "status", status)
	if err := c.Session.ClearAll(context.WithoutCancel(ctx)); err != nil {
		c.Logger.Error("clear session", "err", err)
	}
	return &AuthError{Status: status, Message: msg, LoginPath: c.Session.LoginPath()}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// errorMessage picks detail, then message, from an error body.
func errorMessage(raw []byte) string {
	var env struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil {
		var s string
		switch {
		case json.Unmarshal(env.Detail, &s) == nil && s != "":
			return s
		case len(env.Detail) > 0 && s == "" && string(env.Detail) != "null" && string(env.Detail) != `""`:
			// validation failures carry a structured detail
			return string(env.Detail)
		case env.Message != "":
			return env.Message
		}
	}
	return "Request failed"
}

func pathEscape(s string) string { return url.PathEscape(s) }

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

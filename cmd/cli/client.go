package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/noteai/internal/convert"
)

// apiError is a non-2xx response decoded from the server's error body.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type client struct {
	base string
	hc   *http.Client
}

func newClient(base string, hc *http.Client) *client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &client{base: strings.TrimRight(base, "/"), hc: hc}
}

// do performs one request; bearer is added when non-empty.
func (c *client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode}
		var eb convert.Error
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			ae.Code, ae.Message = eb.Code, eb.Message
		}
		return ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// call performs an unauthenticated request.
func (c *client) call(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, method, path, "", in, out)
}

// authed performs a request with the saved access token. On 401 it refreshes the session
// once and retries; the server itself never retries.
func (c *client) authed(ctx context.Context, method, path string, in, out any) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	err = c.do(ctx, method, path, s.AccessToken, in, out)
	var ae *apiError
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized || s.RefreshToken == "" {
		return err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		return fmt.Errorf("session expired, log in again: %w", rerr)
	}
	s, err = loadSession()
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, s.AccessToken, in, out)
}

// refresh rotates the saved refresh token and stores the new pair.
func (c *client) refresh(ctx context.Context) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	var next convert.Session
	if err := c.do(ctx, "POST", "/api/users/refresh", "", convert.RefreshRequest{RefreshToken: s.RefreshToken}, &next); err != nil {
		return err
	}
	return c.store(next)
}

func (c *client) store(s convert.Session) error {
	return saveSession(sessionFile{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresAt: s.ExpiresAt})
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lernapp-service/internal/domain"
)

// Client talks to a remote auth API exposing /register and /login.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.post(ctx, "/register", body, "registration failed")
}

func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.post(ctx, "/login", body, "login failed")
}

// post sends one request. Non-2xx replies surface the server's detail message,
// or fallback when there is none. Transport failures are reported generically.
func (c *Client) post(ctx context.Context, path string, payload any, fallback string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewError(domain.ErrRemote, "could not reach the auth server")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var reply struct {
		Detail json.RawMessage `json:"detail"`
	}
	msg := fallback
	if err := json.NewDecoder(resp.Body).Decode(&reply); err == nil {
		if detail := detailText(reply.Detail); detail != "" {
			msg = detail
		}
	}
	kind := domain.ErrRemote
	if resp.StatusCode == http.StatusUnauthorized {
		kind = domain.ErrUnauthenticated
	} else if resp.StatusCode == http.StatusBadRequest {
		kind = domain.ErrValidation
	}
	return domain.NewError(kind, msg)
}

// detailText accepts FastAPI-style detail values: a string or a list of
// objects with a msg field.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// Package authclient is a small Go client for the storefront auth endpoints.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const refreshCookieName = "refresh_token"

var ErrNoRefreshCookie = errors.New("response carried no refresh_token cookie")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status           int      `json:"status"`
	Message          string   `json:"message"`
	ValidationErrors []string `json:"validationErrors"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Session is what a successful login yields.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == refreshCookieName && ck.Value != "" {
			return &Session{
				AccessToken:  out.AccessToken,
				RefreshToken: ck.Value,
				ExpiresAt:    time.Now().Add(time.Duration(ck.MaxAge) * time.Second),
			}, nil
		}
	}
	return nil, ErrNoRefreshCookie
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/refresh-token", nil, &http.Cookie{Name: refreshCookieName, Value: refreshToken}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context, s *Session) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &http.Cookie{Name: refreshCookieName, Value: s.RefreshToken}, s.AccessToken)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, cookie *http.Cookie, bearer string) (*http.Response, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}
	return resp, nil
}

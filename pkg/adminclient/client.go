// Package adminclient is a Go client for the user-management service. It
// speaks the same cookie-based contract the browser panel does, including
// the route-guard decision logic a UI runs before rendering a page.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to the service with an in-memory cookie jar, so the token
// pair set by Login/Register rides along on subsequent calls exactly as it
// would in a browser.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

type RegisterParams struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type Identity struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type StatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *Identity `json:"user"`
}

type User struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	return c.do(ctx, http.MethodPost, "/api/register", params, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/login", body, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Refresh exchanges the refresh cookie for a new access cookie.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/refreshtoken", nil, nil)
}

// Status probes the auth-status endpoint. The endpoint answers 200 whether
// or not the caller is authenticated; a non-2xx or transport error here
// means the service itself is unreachable.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/getallusers", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id uint64) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		message := strings.TrimSpace(string(respBody))
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil {
			if apiErr.Error != "" {
				message = apiErr.Error
			} else if apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

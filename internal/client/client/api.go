package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type APIClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*APIClient)(nil)

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *APIClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *APIClient) setToken(t string) {
	c.mu.Lock()
	c.accessToken = t
	c.mu.Unlock()
}

func (c *APIClient) LoggedIn() bool {
	return c.token() != ""
}

// RegisterStudent submits the student form. formID identifies the form
// instance; the server rejects a second submission while one is running.
func (c *APIClient) RegisterStudent(ctx context.Context, formID string, f StudentForm) (*Registration, error) {
	return c.register(ctx, "/api/students", formID, f)
}

func (c *APIClient) RegisterOrganization(ctx context.Context, formID string, f OrganizationForm) (*Registration, error) {
	return c.register(ctx, "/api/organizations", formID, f)
}

func (c *APIClient) register(ctx context.Context, path, formID string, body any) (*Registration, error) {
	var reg Registration
	msg, err := c.do(ctx, http.MethodPost, path, map[string]string{common.FormInstanceHeaderName: formID}, body, &reg)
	if err != nil {
		return nil, err
	}
	reg.Message = msg
	return &reg, nil
}

func (c *APIClient) Login(ctx context.Context, email string, password []byte) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: string(password)}

	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Logout ends the session on the server. The local token is dropped even
// when the server call fails.
func (c *APIClient) Logout(ctx context.Context) error {
	if !c.LoggedIn() {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	c.setToken("")
	return err
}

func (c *APIClient) Me(ctx context.Context) (*Account, error) {
	var acc Account
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *APIClient) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	var p Profile
	if _, err := c.do(ctx, http.MethodPatch, "/api/auth/me", nil, u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *APIClient) ListOrganizations(ctx context.Context) ([]Profile, error) {
	var out []Profile
	if _, err := c.do(ctx, http.MethodGet, "/api/organizations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, headers map[string]string, in, out any) (string, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return "", &APIError{Status: resp.StatusCode}
		}
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(s) * time.Second
		}
		return "", apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Message, nil
}

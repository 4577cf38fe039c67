package authprovider

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

	"github.com/dmitrijs2005/mentorship/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// GoTrueClient calls a GoTrue-compatible REST API (Supabase Auth).
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	serviceKey string
	httpClient *http.Client
	logger     logging.Logger
}

type GoTrueOption func(*GoTrueClient)

// WithServiceRoleKey enables admin calls such as DeleteUser.
func WithServiceRoleKey(key string) GoTrueOption {
	return func(c *GoTrueClient) { c.serviceKey = key }
}

func WithHTTPClient(hc *http.Client) GoTrueOption {
	return func(c *GoTrueClient) { c.httpClient = hc }
}

// NewGoTrueClient returns a client for the auth API rooted at baseURL
// (for Supabase: https://<project>.supabase.co/auth/v1).
func NewGoTrueClient(baseURL, apiKey string, timeout time.Duration, logger logging.Logger, opts ...GoTrueOption) *GoTrueClient {
	c := &GoTrueClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("module", "gotrue"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

func (c *GoTrueClient) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	q := url.Values{}
	if req.RedirectTo != "" {
		q.Set("redirect_to", req.RedirectTo)
	}

	var raw json.RawMessage
	body := credentials{Email: req.Email, Password: req.Password, Data: req.Metadata}
	if err := c.do(ctx, http.MethodPost, "/signup", q, "", c.apiKey, body, &raw); err != nil {
		return nil, err
	}

	return decodeSignUp(raw)
}

// decodeSignUp handles both response shapes: a session when the provider
// auto-confirms, or a bare user when email confirmation is pending.
func decodeSignUp(raw json.RawMessage) (*SignUpResponse, error) {
	if len(raw) == 0 {
		return &SignUpResponse{}, nil
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "malformed sign-up response", Err: err}
	}
	if s.AccessToken != "" && s.User != nil {
		return &SignUpResponse{User: s.User, Session: &s}, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "malformed sign-up response", Err: err}
	}
	if u.ID == "" {
		return &SignUpResponse{}, nil
	}
	return &SignUpResponse{User: &u}, nil
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": []string{"password"}}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/token", q, "", c.apiKey, credentials{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut revokes the session behind accessToken. An empty token means there
// is no session to revoke.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/logout", nil, accessToken, c.apiKey, nil, nil)
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, c.apiKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *GoTrueClient) CanDeleteUsers() bool {
	return c.serviceKey != ""
}

func (c *GoTrueClient) DeleteUser(ctx context.Context, id string) error {
	if c.serviceKey == "" {
		return &Error{Kind: KindUnauthorized, Message: "service role key is not configured"}
	}
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, c.serviceKey, c.serviceKey, nil, nil)
}

func (c *GoTrueClient) do(ctx context.Context, method, path string, query url.Values, bearer, apiKey string, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: "build request", Err: err}
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "auth provider request failed", "method", method, "path", path, "error", err)
		return &Error{Kind: KindUnavailable, Message: "auth provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindUnavailable, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		perr := parseError(resp.StatusCode, data)
		c.logger.Debug(ctx, "auth provider error", "method", method, "path", path,
			"status", resp.StatusCode, "kind", perr.Kind.String(), "code", perr.Code)
		return perr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseError(status int, data []byte) *Error {
	var b errorBody
	_ = json.Unmarshal(data, &b)

	code := b.ErrorCode
	if code == "" {
		code = b.Error
	}

	msg := firstNonEmpty(b.Msg, b.Message, b.ErrorDescription, b.Error)
	if msg == "" && len(data) > 0 && !json.Valid(data) {
		msg = strings.TrimSpace(string(data))
	}

	return NewError(status, code, msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package authprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...GoTrueOption) *GoTrueClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoTrueClient(srv.URL+"/auth/v1/", "anon-key", 5*time.Second, logging.Discard(), opts...)
}

func TestGoTrue_SignUp_Session(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "https://site.test/login", r.URL.Query().Get("redirect_to"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "student", body["data"].(map[string]any)["role"])

		_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"r","token_type":"bearer","expires_in":3600,
			"user":{"id":"u-1","email":"ada@example.com","user_metadata":{"role":"student"}}}`))
	})

	resp, err := c.SignUp(context.Background(), SignUpRequest{
		Email:      "ada@example.com",
		Password:   "secret1",
		Metadata:   map[string]any{"role": "student"},
		RedirectTo: "https://site.test/login",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "u-1", resp.User.ID)
	assert.Equal(t, "student", resp.User.Metadata("role"))
	assert.Equal(t, "tok", resp.Session.AccessToken)
}

func TestGoTrue_SignUp_PendingConfirmation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u-2","email":"org@example.com","confirmation_sent_at":"2026-01-01T00:00:00Z"}`))
	})

	resp, err := c.SignUp(context.Background(), SignUpRequest{Email: "org@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Nil(t, resp.Session)
	assert.Equal(t, "u-2", resp.User.ID)
}

func TestGoTrue_SignUp_NoIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	resp, err := c.SignUp(context.Background(), SignUpRequest{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Nil(t, resp.User)
}

func TestGoTrue_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{name: "duplicate", status: 422, body: `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`, want: KindAlreadyRegistered},
		{name: "rate limit", status: 429, body: `{"code":429,"error_code":"over_email_send_rate_limit","msg":"email rate limit exceeded"}`, want: KindRateLimited},
		{name: "bad request", status: 400, body: `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, want: KindBadRequest},
		{name: "server error plain text", status: 502, body: `bad gateway`, want: KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.SignUp(context.Background(), SignUpRequest{Email: "a@b.co", Password: "secret1"})
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.status, perr.Status)
		})
	}
}

func TestGoTrue_SignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","user":{"id":"u-1","email":"a@b.co"}}`))
	})

	s, err := c.SignInWithPassword(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, "u-1", s.User.ID)
}

func TestGoTrue_SignOut(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.SignOut(context.Background(), "tok"))
	require.NoError(t, c.SignOut(context.Background(), ""))
	assert.Equal(t, 1, calls)
}

func TestGoTrue_GetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-1","email":"a@b.co"}`))
	})

	u, err := c.GetUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", u.Email)

	_, err = c.GetUser(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGoTrue_DeleteUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/u-1", r.URL.Path)
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		assert.Equal(t, "service", r.Header.Get("apikey"))
		w.WriteHeader(http.StatusOK)
	}, WithServiceRoleKey("service"))

	assert.True(t, c.CanDeleteUsers())
	require.NoError(t, c.DeleteUser(context.Background(), "u-1"))
}

func TestGoTrue_DeleteUserWithoutServiceKey(t *testing.T) {
	c := NewGoTrueClient("http://unused", "anon", time.Second, logging.Discard())

	assert.False(t, c.CanDeleteUsers())
	assert.ErrorIs(t, c.DeleteUser(context.Background(), "u-1"), ErrUnauthorized)
}

func TestGoTrue_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewGoTrueClient(url, "anon", time.Second, logging.Discard())
	_, err := c.SignUp(context.Background(), SignUpRequest{Email: "a@b.co", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

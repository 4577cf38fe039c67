// Package authprovider talks to the hosted authentication provider that owns
// accounts, passwords and sessions. It is the only place where provider
// responses are interpreted: every failure leaves this package as an *Error
// with a Kind.
package authprovider

import (
	"context"
	"time"
)

// User is an account as reported by the provider.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
}

// Metadata returns a string value from the user metadata, or "".
func (u *User) Metadata(key string) string {
	if u == nil {
		return ""
	}
	v, _ := u.UserMetadata[key].(string)
	return v
}

// Session is an authenticated session. A sign-up that requires email
// confirmation produces a user without a session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

type SignUpRequest struct {
	Email    string
	Password string
	Metadata map[string]any
	// RedirectTo is where the verification link sends the user.
	RedirectTo string
}

type SignUpResponse struct {
	User    *User
	Session *Session
}

// Provider is the subset of the authentication API the service relies on.
type Provider interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// AccountDeleter is implemented by providers that can remove an account,
// which usually requires elevated credentials.
type AccountDeleter interface {
	CanDeleteUsers() bool
	DeleteUser(ctx context.Context, id string) error
}

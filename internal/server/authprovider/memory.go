package authprovider

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/server/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type memoryAccount struct {
	user User
	hash []byte
}

// MemoryProvider is an in-process stand-in for the hosted provider, used for
// local development and tests. Accounts are auto-confirmed and every sign-up
// returns a session.
type MemoryProvider struct {
	mu       sync.Mutex
	secret   []byte
	ttl      time.Duration
	byEmail  map[string]*memoryAccount
	byID     map[string]*memoryAccount
	revoked  map[string]struct{}
	now      func() time.Time
	hashCost int
}

func NewMemoryProvider(secret []byte, tokenTTL time.Duration) *MemoryProvider {
	return &MemoryProvider{
		secret:   secret,
		ttl:      tokenTTL,
		byEmail:  make(map[string]*memoryAccount),
		byID:     make(map[string]*memoryAccount),
		revoked:  make(map[string]struct{}),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

func (p *MemoryProvider) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, NewError(http.StatusBadRequest, "validation_failed", "Signup requires a valid email")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, NewError(http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.hashCost)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "hash password", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byEmail[email]; ok {
		return nil, NewError(http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	}

	now := p.now().UTC()
	acc := &memoryAccount{
		user: User{
			ID:               uuid.NewString(),
			Email:            email,
			Role:             "authenticated",
			UserMetadata:     maps.Clone(req.Metadata),
			CreatedAt:        now,
			EmailConfirmedAt: &now,
		},
		hash: hash,
	}
	p.byEmail[email] = acc
	p.byID[acc.user.ID] = acc

	s, err := p.newSession(acc.user)
	if err != nil {
		return nil, err
	}
	u := acc.user
	return &SignUpResponse{User: &u, Session: s}, nil
}

func (p *MemoryProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	p.mu.Lock()
	acc, ok := p.byEmail[strings.ToLower(strings.TrimSpace(email))]
	p.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, NewError(http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	}

	return p.newSession(acc.user)
}

func (p *MemoryProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	claims, err := p.verify(accessToken)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.revoked[claims.SessionID] = struct{}{}
	p.mu.Unlock()
	return nil
}

func (p *MemoryProvider) GetUser(ctx context.Context, accessToken string) (*User, error) {
	claims, err := p.verify(accessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.revoked[claims.SessionID]; ok {
		return nil, NewError(http.StatusUnauthorized, "session_not_found", "Session not found")
	}
	acc, ok := p.byID[claims.Subject]
	if !ok {
		return nil, NewError(http.StatusNotFound, "user_not_found", "User not found")
	}
	u := acc.user
	return &u, nil
}

func (p *MemoryProvider) CanDeleteUsers() bool {
	return true
}

func (p *MemoryProvider) DeleteUser(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byID[id]
	if !ok {
		return NewError(http.StatusNotFound, "user_not_found", "User not found")
	}
	delete(p.byID, id)
	delete(p.byEmail, acc.user.Email)
	return nil
}

func (p *MemoryProvider) newSession(u User) (*Session, error) {
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
		Email:            u.Email,
		Role:             u.Role,
		SessionID:        uuid.NewString(),
		UserMetadata:     u.UserMetadata,
	}
	token, err := auth.GenerateToken(claims, p.secret, p.ttl)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "sign token", Err: err}
	}
	return &Session{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    int(p.ttl.Seconds()),
		User:         &u,
	}, nil
}

func (p *MemoryProvider) verify(token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, p.secret)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, common.ErrTokenExpired) {
			msg = "Token expired"
		}
		return nil, &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Code: "bad_jwt", Message: msg, Err: err}
	}
	return claims, nil
}

package registration

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/orphans"
)

type fakeProvider struct {
	mu sync.Mutex

	// signUpErrs are returned by consecutive SignUp calls; once exhausted,
	// SignUp succeeds with resp.
	signUpErrs []error
	resp       *authprovider.SignUpResponse
	block      chan struct{}

	signUps   []authprovider.SignUpRequest
	signOuts  []string
	signOutCx []context.Context
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		resp: &authprovider.SignUpResponse{
			User:    &authprovider.User{ID: "acc-1", Email: "foo@bar.com"},
			Session: &authprovider.Session{AccessToken: "tok-1"},
		},
	}
}

func (p *fakeProvider) SignUp(ctx context.Context, req authprovider.SignUpRequest) (*authprovider.SignUpResponse, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signUps = append(p.signUps, req)
	if len(p.signUpErrs) > 0 {
		err := p.signUpErrs[0]
		p.signUpErrs = p.signUpErrs[1:]
		return nil, err
	}
	return p.resp, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*authprovider.Session, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) SignOut(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts = append(p.signOuts, token)
	p.signOutCx = append(p.signOutCx, ctx)
	return nil
}

func (p *fakeProvider) GetUser(ctx context.Context, token string) (*authprovider.User, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) signUpCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signUps)
}

type deletingProvider struct {
	*fakeProvider
	deleted   []string
	deleteErr error
}

func (p *deletingProvider) CanDeleteUsers() bool { return true }

func (p *deletingProvider) DeleteUser(ctx context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	return p.deleteErr
}

type fakeInserter[T any] struct {
	mu       sync.Mutex
	rows     []*T
	err      error
	nilRow   bool
	onInsert func()
}

func (f *fakeInserter[T]) Insert(ctx context.Context, row *T) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	if f.onInsert != nil {
		f.onInsert()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.nilRow {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeInserter[T]) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeLedger struct {
	recorded []orphans.Orphan
}

func (l *fakeLedger) Record(ctx context.Context, o orphans.Orphan) error {
	l.recorded = append(l.recorded, o)
	return nil
}

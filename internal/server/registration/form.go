package registration

import (
	"context"
	"sync"
)

// Runner executes one registration. *Workflow implements it.
type Runner interface {
	Run(ctx context.Context, role Role, in Input, observe func(State)) Result
}

// Form is one registration form instance. It accepts a single submission at
// a time and rejects others while one is in flight.
type Form struct {
	role   Role
	runner Runner
	slot   chan struct{}

	mu    sync.RWMutex
	state State
}

func NewForm(role Role, runner Runner) *Form {
	return &Form{
		role:   role,
		runner: runner,
		slot:   make(chan struct{}, 1),
		state:  StateIdle,
	}
}

// Submit runs the workflow for in. A concurrent call returns
// ErrSubmissionInProgress without touching the form.
func (f *Form) Submit(ctx context.Context, in Input) (Result, error) {
	select {
	case f.slot <- struct{}{}:
	default:
		return Result{}, ErrSubmissionInProgress
	}
	defer func() { <-f.slot }()

	return f.runner.Run(ctx, f.role, in, f.setState), nil
}

func (f *Form) Role() Role {
	return f.role
}

func (f *Form) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Busy reports whether a submission is in flight.
func (f *Form) Busy() bool {
	return len(f.slot) == 1
}

func (f *Form) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

package registration

import (
	"context"
	"sync"
)

type formKey struct {
	role Role
	id   string
}

type formRef struct {
	form *Form
	refs int
}

// Forms maps form instance ids to live Form values. An entry lives as long as
// someone holds it, so concurrent submissions with the same id share one
// re-entrancy guard.
type Forms struct {
	runner Runner

	mu    sync.Mutex
	forms map[formKey]*formRef
}

func NewForms(runner Runner) *Forms {
	return &Forms{
		runner: runner,
		forms:  make(map[formKey]*formRef),
	}
}

// Acquire returns the form for (role, id) and a release func that must be
// called once. An empty id yields a fresh, unshared form.
func (fs *Forms) Acquire(role Role, id string) (*Form, func()) {
	if id == "" {
		return NewForm(role, fs.runner), func() {}
	}

	key := formKey{role: role, id: id}

	fs.mu.Lock()
	ref, ok := fs.forms[key]
	if !ok {
		ref = &formRef{form: NewForm(role, fs.runner)}
		fs.forms[key] = ref
	}
	ref.refs++
	fs.mu.Unlock()

	var once sync.Once
	return ref.form, func() {
		once.Do(func() {
			fs.mu.Lock()
			defer fs.mu.Unlock()
			ref.refs--
			if ref.refs == 0 {
				delete(fs.forms, key)
			}
		})
	}
}

// Submit acquires the form for (role, id), submits in and releases the form.
func (fs *Forms) Submit(ctx context.Context, role Role, id string, in Input) (Result, error) {
	form, release := fs.Acquire(role, id)
	defer release()
	return form.Submit(ctx, in)
}

// Len reports how many form instances are currently held.
func (fs *Forms) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.forms)
}

package registration

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	provider *fakeProvider
	students *fakeInserter[models.Student]
	orgs     *fakeInserter[models.Organization]
	ledger   *fakeLedger
	delays   []time.Duration
	states   []State
	wf       *Workflow
}

func newHarness(t *testing.T, provider authprovider.Provider, fp *fakeProvider, cfg Config) *harness {
	t.Helper()
	h := &harness{
		provider: fp,
		students: &fakeInserter[models.Student]{},
		orgs:     &fakeInserter[models.Organization]{},
		ledger:   &fakeLedger{},
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}
	}
	cfg.Retry.OnRetry = func(_ int, d time.Duration, _ error) { h.delays = append(h.delays, d) }
	if cfg.RedirectTo == "" {
		cfg.RedirectTo = "https://mentorship.test/login"
	}
	h.wf = NewWorkflow(provider, h.students, h.orgs, h.ledger, logging.Discard(), cfg)
	h.wf.now = func() time.Time { return fixedNow }
	return h
}

func newDefaultHarness(t *testing.T) *harness {
	fp := newFakeProvider()
	return newHarness(t, fp, fp, Config{})
}

func (h *harness) run(ctx context.Context, role Role, in Input) Result {
	return h.wf.Run(ctx, role, in, func(s State) { h.states = append(h.states, s) })
}

func rateLimited() error {
	return authprovider.NewError(http.StatusTooManyRequests, "over_request_rate_limit", "Too many requests")
}

func TestRun_StudentSuccessNormalizesInput(t *testing.T) {
	h := newDefaultHarness(t)

	res := h.run(context.Background(), RoleStudent, Input{Email: "  Foo@Bar.com ", Password: "abc123", DisplayName: "Jane Doe"})

	require.True(t, res.Success)
	require.Nil(t, res.Err)
	require.NotNil(t, res.Data)
	assert.Equal(t, &models.Student{ID: "acc-1", FullName: "Jane Doe", Email: "foo@bar.com", CreatedAt: fixedNow}, res.Data.Student)
	assert.Nil(t, res.Data.Organization)
	assert.Equal(t, "acc-1", res.Data.Account.ID)
	assert.False(t, res.Data.ConfirmationPending)

	require.Len(t, h.provider.signUps, 1)
	req := h.provider.signUps[0]
	assert.Equal(t, "foo@bar.com", req.Email)
	assert.Equal(t, "abc123", req.Password)
	assert.Equal(t, "https://mentorship.test/login", req.RedirectTo)
	assert.Equal(t, map[string]any{"role": "student", "display_name": "Jane Doe", "full_name": "Jane Doe"}, req.Metadata)

	assert.Equal(t, []State{StateValidating, StateCreatingAccount, StateCreatingProfile, StateSucceeded}, h.states)
	assert.Empty(t, h.provider.signOuts)
}

func TestRun_OrganizationDescription(t *testing.T) {
	h := newDefaultHarness(t)

	res := h.run(context.Background(), RoleOrganization, Input{
		Email: "org@acme.io", Password: "abc123", DisplayName: " Acme ", Description: "  Open source  ",
	})
	require.True(t, res.Success)
	org := res.Data.Organization
	require.NotNil(t, org)
	assert.Equal(t, "Acme", org.Name)
	require.NotNil(t, org.Description)
	assert.Equal(t, "Open source", *org.Description)
	assert.Equal(t, "organization", h.provider.signUps[0].Metadata["role"])
	assert.Equal(t, "Acme", h.provider.signUps[0].Metadata["name"])

	res = h.run(context.Background(), RoleOrganization, Input{Email: "org2@acme.io", Password: "abc123", DisplayName: "Acme 2", Description: "   "})
	require.True(t, res.Success)
	assert.Nil(t, res.Data.Organization.Description, "blank description is stored as NULL")
}

func TestRun_ValidationFailureMakesNoExternalCalls(t *testing.T) {
	h := newDefaultHarness(t)

	res := h.run(context.Background(), RoleStudent, Input{Email: "bad", Password: "abc123", DisplayName: "Jane"})

	assert.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonValidation, res.Err.Reason)
	assert.Equal(t, "Please enter a valid email address", res.Err.Message)
	assert.Equal(t, 0, h.provider.signUpCount())
	assert.Equal(t, 0, h.students.count())
	assert.Equal(t, []State{StateValidating, StateFailed}, h.states)
}

func TestRun_RetriesRateLimitThenSucceeds(t *testing.T) {
	fp := newFakeProvider()
	fp.signUpErrs = []error{rateLimited(), rateLimited()}
	h := newHarness(t, fp, fp, Config{Retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}})

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.True(t, res.Success)
	assert.Equal(t, 3, fp.signUpCount())

	var total time.Duration
	for _, d := range h.delays {
		total += d
	}
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, h.delays)
	assert.Equal(t, time.Millisecond*(1+2), total)
}

func TestRun_RateLimitExhausted(t *testing.T) {
	fp := newFakeProvider()
	fp.signUpErrs = []error{rateLimited(), rateLimited(), rateLimited(), rateLimited()}
	h := newHarness(t, fp, fp, Config{})

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonRateLimited, res.Err.Reason)
	assert.Equal(t, RateLimitCooldown, res.Err.RetryAfter)
	assert.Equal(t, msgRateLimited, res.Err.Message)
	assert.Equal(t, 3, fp.signUpCount())
	assert.Equal(t, 0, h.students.count())
}

func TestRun_ProviderFailuresAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{name: "duplicate", err: authprovider.NewError(422, "user_already_exists", "User already registered"), want: ReasonDuplicateAccount},
		{name: "bad request", err: authprovider.NewError(400, "validation_failed", "Unable to validate email address"), want: ReasonInvalidInput},
		{name: "server error", err: authprovider.NewError(503, "", ""), want: ReasonUnknown},
		{name: "unclassified", err: errors.New("socket closed"), want: ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakeProvider()
			fp.signUpErrs = []error{tt.err}
			h := newHarness(t, fp, fp, Config{})

			res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

			require.NotNil(t, res.Err)
			assert.Equal(t, tt.want, res.Err.Reason)
			assert.ErrorIs(t, res.Err, tt.err, "cause is kept")
			assert.Equal(t, 1, fp.signUpCount(), "only rate limits are retried")
			assert.Equal(t, 0, h.students.count())
		})
	}
}

func TestRun_SignUpWithoutUserIsIncomplete(t *testing.T) {
	fp := newFakeProvider()
	fp.resp = &authprovider.SignUpResponse{}
	h := newHarness(t, fp, fp, Config{})

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonAccountCreationIncomplete, res.Err.Reason)
	assert.Equal(t, "Failed to create user", res.Err.Message)
	assert.Equal(t, 0, h.students.count())
}

func TestRun_PendingConfirmation(t *testing.T) {
	fp := newFakeProvider()
	fp.resp = &authprovider.SignUpResponse{User: &authprovider.User{ID: "acc-9"}}
	h := newHarness(t, fp, fp, Config{})

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.True(t, res.Success)
	assert.True(t, res.Data.ConfirmationPending)
	assert.Equal(t, "acc-9", res.Data.Student.ID)
}

func TestRun_ProfileFailureSignsOutOnceAndRecordsOrphan(t *testing.T) {
	h := newDefaultHarness(t)
	h.students.err = errors.New("db error: connection reset")

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonProfileCreationFailed, res.Err.Reason)
	assert.Equal(t, "Failed to create student profile", res.Err.Message)
	assert.Equal(t, []string{"tok-1"}, h.provider.signOuts, "exactly one sign-out")

	require.Len(t, h.ledger.recorded, 1)
	o := h.ledger.recorded[0]
	assert.Equal(t, "acc-1", o.AccountID)
	assert.Equal(t, "a@b.co", o.Email)
	assert.Equal(t, "student", o.Role)
	assert.Contains(t, o.Reason, "connection reset")

	assert.Equal(t, []State{StateValidating, StateCreatingAccount, StateCreatingProfile, StateFailed}, h.states)
}

func TestRun_ProfileMissingRowCompensates(t *testing.T) {
	h := newDefaultHarness(t)
	h.orgs.nilRow = true

	res := h.run(context.Background(), RoleOrganization, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Acme"})

	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonProfileCreationFailed, res.Err.Reason)
	assert.Equal(t, "Failed to create organization profile", res.Err.Message)
	assert.Len(t, h.provider.signOuts, 1)
}

func TestRun_ProfileFailureDeletesAccountWhenSupported(t *testing.T) {
	fp := newFakeProvider()
	dp := &deletingProvider{fakeProvider: fp}
	h := newHarness(t, dp, fp, Config{DeleteOnCompensation: true})
	h.students.err = errors.New("insert failed")

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.NotNil(t, res.Err)
	assert.Equal(t, ReasonProfileCreationFailed, res.Err.Reason)
	assert.Len(t, fp.signOuts, 1)
	assert.Equal(t, []string{"acc-1"}, dp.deleted)
	assert.Empty(t, h.ledger.recorded)
}

func TestRun_FailedDeletionFallsBackToLedger(t *testing.T) {
	fp := newFakeProvider()
	dp := &deletingProvider{fakeProvider: fp, deleteErr: errors.New("forbidden")}
	h := newHarness(t, dp, fp, Config{DeleteOnCompensation: true})
	h.students.err = errors.New("insert failed")

	h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	assert.Equal(t, []string{"acc-1"}, dp.deleted)
	assert.Len(t, h.ledger.recorded, 1)
}

func TestRun_CompensationIgnoresCallerCancellation(t *testing.T) {
	h := newDefaultHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.students.err = errors.New("insert failed")
	h.students.onInsert = cancel

	h.run(ctx, RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})

	require.Len(t, h.provider.signOutCx, 1)
	assert.NoError(t, h.provider.signOutCx[0].Err())
}

func TestRun_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	fp := newFakeProvider()
	fp.signUpErrs = []error{rateLimited()}
	h := newHarness(t, fp, fp, Config{Tracer: tp.Tracer("test")})

	res := h.run(context.Background(), RoleStudent, Input{Email: "a@b.co", Password: "abc123", DisplayName: "Jane"})
	require.True(t, res.Success)

	names := map[string]bool{}
	for _, s := range sr.Ended() {
		names[s.Name()] = true
		if s.Name() == "registration.CreateAccount" {
			require.Len(t, s.Events(), 1)
			assert.Equal(t, "backoff", s.Events()[0].Name)
		}
	}
	assert.True(t, names["registration.Run"])
	assert.True(t, names["registration.CreateAccount"])
	assert.True(t, names["registration.CreateProfile"])
}

func TestNewWorkflow_KeepsConfiguredRetryFields(t *testing.T) {
	fp := newFakeProvider()
	wf := NewWorkflow(fp, &fakeInserter[models.Student]{}, &fakeInserter[models.Organization]{}, &fakeLedger{}, logging.Discard(), Config{
		Retry: RetryPolicy{InitialDelay: 50 * time.Millisecond},
	})

	assert.Equal(t, 3, wf.cfg.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, wf.cfg.Retry.InitialDelay)
}

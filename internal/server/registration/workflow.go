// Package registration implements sign-up for students and organizations:
// validate the form, create the account at the auth provider (retrying while
// rate-limited), then create the profile row, undoing the account when the
// profile cannot be stored.
package registration

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/models"
	"github.com/dmitrijs2005/mentorship/internal/server/orphans"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/mentorship/internal/server/registration"

// Inserter stores a profile row and returns it as stored.
type Inserter[T any] interface {
	Insert(ctx context.Context, row *T) (*T, error)
}

type Config struct {
	// RedirectTo is where the email verification link lands.
	RedirectTo string
	Retry      RetryPolicy
	// DeleteOnCompensation removes the account when its profile cannot be
	// created, if the provider supports it.
	DeleteOnCompensation bool
	Tracer               trace.Tracer
}

// Registration is the outcome of a successful run.
type Registration struct {
	Account      *authprovider.User   `json:"account"`
	Student      *models.Student      `json:"student,omitempty"`
	Organization *models.Organization `json:"organization,omitempty"`
	// ConfirmationPending is set when the provider did not open a session
	// because the email address still has to be verified.
	ConfirmationPending bool `json:"confirmation_pending"`
}

// Result is what a run reports. Exactly one of Data and Err is set.
type Result struct {
	Success bool
	Data    *Registration
	Err     *Error
}

type Workflow struct {
	provider      authprovider.Provider
	students      Inserter[models.Student]
	organizations Inserter[models.Organization]
	orphans       orphans.Recorder
	logger        logging.Logger
	tracer        trace.Tracer
	cfg           Config
	now           func() time.Time
}

func NewWorkflow(
	provider authprovider.Provider,
	students Inserter[models.Student],
	organizations Inserter[models.Organization],
	orphanLedger orphans.Recorder,
	logger logging.Logger,
	cfg Config,
) *Workflow {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	cfg.Retry = cfg.Retry.withDefaults()
	return &Workflow{
		provider:      provider,
		students:      students,
		organizations: organizations,
		orphans:       orphanLedger,
		logger:        logger.With("module", "registration"),
		tracer:        tracer,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Run drives one submission through the state machine. observe, if not nil,
// is called on every state change. Run never returns a bare error.
func (w *Workflow) Run(ctx context.Context, role Role, in Input, observe func(State)) Result {
	if observe == nil {
		observe = func(State) {}
	}

	ctx, span := w.tracer.Start(ctx, "registration.Run", trace.WithAttributes(attribute.String("registration.role", string(role))))
	defer span.End()

	fail := func(e *Error) Result {
		span.SetStatus(codes.Error, e.Reason.String())
		span.SetAttributes(attribute.String("registration.reason", e.Reason.String()))
		observe(StateFailed)
		return Result{Err: e}
	}

	observe(StateValidating)
	in = Normalize(in)
	if err := Validate(role, in); err != nil {
		var verr *Error
		errors.As(err, &verr)
		w.logger.Debug(ctx, "registration rejected", "role", role, "reason", verr.Message)
		return fail(verr)
	}

	observe(StateCreatingAccount)
	resp, err := w.createAccount(ctx, role, in)
	if err != nil {
		return fail(w.accountError(ctx, role, in, err))
	}
	if resp == nil || resp.User == nil || resp.User.ID == "" {
		w.logger.Error(ctx, "sign-up returned no user", "role", role, "email", in.Email)
		return fail(&Error{Reason: ReasonAccountCreationIncomplete, Message: msgIncomplete})
	}
	span.SetAttributes(attribute.String("registration.account_id", resp.User.ID))

	observe(StateCreatingProfile)
	reg, err := w.createProfile(ctx, role, in, resp.User.ID)
	if err != nil {
		w.logger.Error(ctx, "profile creation failed", "role", role, "account_id", resp.User.ID, "error", err)
		w.compensate(ctx, role, in.Email, resp, err)
		return fail(&Error{Reason: ReasonProfileCreationFailed, Message: "Failed to create " + string(role) + " profile", Err: err})
	}

	reg.Account = resp.User
	reg.ConfirmationPending = resp.Session == nil
	w.logger.Info(ctx, "registration succeeded", "role", role, "account_id", resp.User.ID)
	span.SetStatus(codes.Ok, "")
	observe(StateSucceeded)
	return Result{Success: true, Data: reg}
}

func (w *Workflow) createAccount(ctx context.Context, role Role, in Input) (*authprovider.SignUpResponse, error) {
	ctx, span := w.tracer.Start(ctx, "registration.CreateAccount")
	defer span.End()

	metadata := map[string]any{
		"role":         string(role),
		"display_name": in.DisplayName,
	}
	if role == RoleStudent {
		metadata["full_name"] = in.DisplayName
	} else {
		metadata["name"] = in.DisplayName
	}

	policy := w.cfg.Retry
	observeRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		w.logger.Warn(ctx, "sign-up rate limited, backing off", "attempt", attempt+1, "delay", delay, "error", err)
		span.AddEvent("backoff", trace.WithAttributes(attribute.Int("attempt", attempt+1), attribute.String("delay", delay.String())))
		if observeRetry != nil {
			observeRetry(attempt, delay, err)
		}
	}

	var resp *authprovider.SignUpResponse
	err := policy.Do(ctx, authprovider.IsRateLimited, func(ctx context.Context) error {
		var err error
		resp, err = w.provider.SignUp(ctx, authprovider.SignUpRequest{
			Email:      in.Email,
			Password:   in.Password,
			Metadata:   metadata,
			RedirectTo: w.cfg.RedirectTo,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign-up failed")
		return nil, err
	}
	return resp, nil
}

func (w *Workflow) accountError(ctx context.Context, role Role, in Input, err error) *Error {
	switch authprovider.KindOf(err) {
	case authprovider.KindAlreadyRegistered:
		w.logger.Info(ctx, "email already registered", "role", role, "email", in.Email)
		return &Error{Reason: ReasonDuplicateAccount, Message: msgDuplicate, Err: err}
	case authprovider.KindRateLimited:
		w.logger.Warn(ctx, "sign-up still rate limited after retries", "role", role, "email", in.Email)
		return &Error{Reason: ReasonRateLimited, Message: msgRateLimited, RetryAfter: RateLimitCooldown, Err: err}
	case authprovider.KindBadRequest:
		w.logger.Info(ctx, "sign-up rejected by provider", "role", role, "error", err)
		return &Error{Reason: ReasonInvalidInput, Message: msgInvalid, Err: err}
	default:
		w.logger.Error(ctx, "sign-up failed", "role", role, "email", in.Email, "error", err)
		return &Error{Reason: ReasonUnknown, Message: msgUnknown, Err: err}
	}
}

func (w *Workflow) createProfile(ctx context.Context, role Role, in Input, accountID string) (*Registration, error) {
	ctx, span := w.tracer.Start(ctx, "registration.CreateProfile")
	defer span.End()

	now := w.now().UTC()

	switch role {
	case RoleStudent:
		row, err := w.students.Insert(ctx, &models.Student{
			ID:        accountID,
			FullName:  in.DisplayName,
			Email:     in.Email,
			CreatedAt: now,
		})
		if err == nil && row == nil {
			err = errNoRow
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return &Registration{Student: row}, nil

	default:
		var description *string
		if in.Description != "" {
			d := in.Description
			description = &d
		}
		row, err := w.organizations.Insert(ctx, &models.Organization{
			ID:          accountID,
			Name:        in.DisplayName,
			Email:       in.Email,
			Description: description,
			CreatedAt:   now,
		})
		if err == nil && row == nil {
			err = errNoRow
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return &Registration{Organization: row}, nil
	}
}

var errNoRow = errors.New("profile insert returned no row")

// compensate undoes an account whose profile could not be stored. It runs
// detached from the caller's cancellation.
func (w *Workflow) compensate(ctx context.Context, role Role, email string, resp *authprovider.SignUpResponse, cause error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := w.tracer.Start(ctx, "registration.Compensate")
	defer span.End()

	accountID := resp.User.ID

	var token string
	if resp.Session != nil {
		token = resp.Session.AccessToken
	}
	if err := w.provider.SignOut(ctx, token); err != nil {
		w.logger.Warn(ctx, "sign-out during compensation failed", "account_id", accountID, "error", err)
	}

	if w.cfg.DeleteOnCompensation {
		if d, ok := w.provider.(authprovider.AccountDeleter); ok && d.CanDeleteUsers() {
			err := d.DeleteUser(ctx, accountID)
			if err == nil {
				w.logger.Info(ctx, "account deleted after profile failure", "account_id", accountID)
				span.SetAttributes(attribute.Bool("registration.account_deleted", true))
				return
			}
			w.logger.Error(ctx, "account deletion failed", "account_id", accountID, "error", err)
		}
	}

	if w.orphans == nil {
		return
	}
	err := w.orphans.Record(ctx, orphans.Orphan{
		AccountID:  accountID,
		Email:      email,
		Role:       string(role),
		Reason:     cause.Error(),
		OccurredAt: w.now().UTC(),
	})
	if err != nil {
		w.logger.Error(ctx, "orphan not recorded", "account_id", accountID, "error", err)
	}
}

package registration

import (
	"errors"
	"time"
)

// Reason classifies why a registration failed.
type Reason int

const (
	ReasonValidation Reason = iota + 1
	ReasonDuplicateAccount
	ReasonRateLimited
	ReasonInvalidInput
	ReasonAccountCreationIncomplete
	ReasonProfileCreationFailed
	ReasonUnknown
)

func (r Reason) String() string {
	switch r {
	case ReasonValidation:
		return "validation"
	case ReasonDuplicateAccount:
		return "duplicate_account"
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonInvalidInput:
		return "invalid_input"
	case ReasonAccountCreationIncomplete:
		return "account_creation_incomplete"
	case ReasonProfileCreationFailed:
		return "profile_creation_failed"
	default:
		return "unknown"
	}
}

// RateLimitCooldown is how long users are told to wait after the provider
// keeps rate-limiting sign-ups.
const RateLimitCooldown = 5 * time.Minute

const (
	msgDuplicate   = "This email is already registered. Please use a different email."
	msgRateLimited = "Registration is temporarily unavailable. Please wait 5-10 minutes before trying again."
	msgInvalid     = "Invalid registration data. Please check your email and password."
	msgIncomplete  = "Failed to create user"
	msgUnknown     = "Registration failed. Please try again."
)

// ErrSubmissionInProgress is returned when a form instance is already
// processing a submission.
var ErrSubmissionInProgress = errors.New("registration already in progress")

// Error is a failed registration. Message is safe to show to the user; Err
// holds the underlying cause for logs.
type Error struct {
	Reason     Reason
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Reason.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

func validationError(msg string) *Error {
	return &Error{Reason: ReasonValidation, Message: msg}
}

// ReasonOf returns the Reason carried by err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonUnknown
}

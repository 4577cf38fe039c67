package authprovider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed set of provider failure classes.
type Kind int

const (
	KindUnknown Kind = iota
	KindAlreadyRegistered
	KindRateLimited
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyRegistered:
		return "already_registered"
	case KindRateLimited:
		return "rate_limited"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure. Status is 0 for transport errors.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrAlreadyRegistered = &Error{Kind: KindAlreadyRegistered}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrBadRequest        = &Error{Kind: KindBadRequest}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("auth provider: %s (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("auth provider: %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds a classified error from a provider response.
func NewError(status int, code, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Kind:    Classify(status, code, message),
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// Classify maps a provider response onto a Kind. Message and code checks win
// over the status code because providers report duplicates as 400 or 422.
func Classify(status int, code, message string) Kind {
	msg := strings.ToLower(message)
	code = strings.ToLower(code)

	switch {
	case strings.Contains(msg, "already registered"),
		code == "user_already_exists", code == "email_exists":
		return KindAlreadyRegistered
	case status == http.StatusTooManyRequests,
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate limit exceeded"),
		strings.HasPrefix(code, "over_") && strings.HasSuffix(code, "_rate_limit"):
		return KindRateLimited
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindBadRequest
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= http.StatusInternalServerError:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// KindOf reports the Kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

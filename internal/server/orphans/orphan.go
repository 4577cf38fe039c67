// Package orphans keeps a ledger of accounts that exist at the auth provider
// without a profile row, so an operator can clean them up.
package orphans

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/logging"
)

// Orphan is an account whose profile could not be created and which could
// not be deleted from the provider.
type Orphan struct {
	AccountID  string    `json:"account_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Recorder interface {
	Record(ctx context.Context, o Orphan) error
}

// LogRecorder writes orphans to the structured log only.
type LogRecorder struct {
	logger logging.Logger
}

func NewLogRecorder(logger logging.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With("module", "orphans")}
}

func (r *LogRecorder) Record(ctx context.Context, o Orphan) error {
	r.logger.Warn(ctx, "orphaned account",
		"account_id", o.AccountID, "email", o.Email, "role", o.Role,
		"reason", o.Reason, "occurred_at", o.OccurredAt)
	return nil
}

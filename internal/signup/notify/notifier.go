// Package notify sends waitlist confirmation messages. Delivery is a
// best-effort side effect of signup: a failed send never changes the outcome
// of the request that triggered it.
package notify

import (
	"context"
	"log/slog"
)

// Notifier is the confirmation message collaborator.
type Notifier interface {
	// Send delivers a confirmation to the given address.
	Send(ctx context.Context, toEmail string) error
}

// LogNotifier writes confirmations to the log instead of delivering them.
// Used in development and demo runs where no relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, toEmail string) error {
	n.logger.InfoContext(ctx, "confirmation (log only)", "to", toEmail)
	return nil
}

package notify

import (
	"context"
	"log/slog"
	"time"

	"waitlist/internal/signup/metrics"
)

const sendTimeout = 30 * time.Second

// Worker consumes confirmation requests from a channel and delivers them
// through the Notifier. Enqueueing is non-blocking, so the request path that
// produced the signup is never held up by delivery; send failures are logged
// and counted, never propagated.
type Worker struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	inbox    chan string
}

// NewWorker creates a worker with a buffered inbox.
func NewWorker(notifier Notifier, logger *slog.Logger, m *metrics.Metrics, buffer int) *Worker {
	if buffer < 1 {
		buffer = 64
	}
	return &Worker{
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		inbox:    make(chan string, buffer),
	}
}

// Enqueue hands an address to the worker without blocking. When the inbox is
// full the confirmation is dropped; the signup it belongs to already stands.
func (w *Worker) Enqueue(toEmail string) {
	select {
	case w.inbox <- toEmail:
	default:
		w.logger.Warn("confirmation inbox full, dropping send")
		if w.metrics != nil {
			w.metrics.IncrementNotificationFailures()
		}
	}
}

// Run consumes the inbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case toEmail := <-w.inbox:
			w.send(ctx, toEmail)
		}
	}
}

func (w *Worker) send(ctx context.Context, toEmail string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := w.notifier.Send(sendCtx, toEmail); err != nil {
		w.logger.ErrorContext(ctx, "confirmation send failed", "error", err.Error())
		if w.metrics != nil {
			w.metrics.IncrementNotificationFailures()
		}
		return
	}
	if w.metrics != nil {
		w.metrics.IncrementNotificationsSent()
	}
}

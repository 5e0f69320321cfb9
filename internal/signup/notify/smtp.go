package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"

	"waitlist/internal/platform/config"
)

const confirmationSubject = "You're on the waitlist"

const confirmationBody = "Thanks for signing up for early access. " +
	"We'll be in touch as soon as your spot opens up."

// SMTPNotifier delivers confirmations through a mail relay. Outbound sends
// are paced so a burst of signups cannot flood the relay.
type SMTPNotifier struct {
	addr    string
	from    string
	auth    smtp.Auth
	limiter *rate.Limiter
}

// NewSMTP builds a notifier from SMTP configuration.
func NewSMTP(cfg config.SMTP) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	sendsPerSecond := cfg.SendsPerSecond
	if sendsPerSecond <= 0 {
		sendsPerSecond = 1
	}
	return &SMTPNotifier{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:    cfg.From,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, toEmail string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace confirmation send: %w", err)
	}

	msg := n.buildMessage(toEmail)
	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("send confirmation to relay: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(toEmail string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", confirmationSubject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(confirmationBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Package mailer delivers composed email messages over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/resilience/circuitbreaker"
	"stream-notify/internal/resilience/retry"
)

// Config contains SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address stamped on every outgoing message.
	From string
}

// Sender delivers email messages. Implemented by Mailer; mocked in tests.
type Sender interface {
	Send(ctx context.Context, msg *entity.EmailMessage) error
}

// Mailer sends messages through an SMTP relay using gomail. Transient dial
// failures are retried with backoff; a persistently dead relay trips the
// circuit breaker so queued sends fail fast instead of piling up on timeouts.
type Mailer struct {
	config  Config
	dialer  *gomail.Dialer
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	logger  *slog.Logger
}

// NewMailer creates a Mailer for the given SMTP configuration.
func NewMailer(config Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		config:  config,
		dialer:  gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		breaker: circuitbreaker.New(circuitbreaker.SMTPRelayConfig()),
		retry:   retry.SMTPConfig(),
		logger:  logger,
	}
}

// Send delivers one composed message. The message must carry either direct
// recipients or bcc recipients; Validate enforces that before dialing.
func (m *Mailer) Send(ctx context.Context, msg *entity.EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Send: %w", err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.config.From)
	if msg.To != "" {
		gm.SetHeader("To", splitAddresses(msg.To)...)
	}
	if msg.Bcc != "" {
		gm.SetHeader("Bcc", splitAddresses(msg.Bcc)...)
	}
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	if msg.HighPriority {
		gm.SetHeader("X-Priority", "1 (Highest)")
		gm.SetHeader("Importance", "high")
	}
	gm.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		gm.AddAlternative("text/html", msg.HTMLBody)
	}

	_, err := m.breaker.Execute(func() (any, error) {
		return nil, retry.WithBackoff(ctx, m.retry, func() error {
			return m.dialer.DialAndSend(gm)
		})
	})
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	m.logger.Info("mail sent",
		slog.String("description", msg.Description),
		slog.Bool("high_priority", msg.HighPriority))
	return nil
}

// splitAddresses parses a comma-joined address list into individual addresses.
func splitAddresses(joined string) []string {
	parts := strings.Split(joined, ",")
	addresses := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}
	return addresses
}

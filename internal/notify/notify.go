// Package notify delivers operator-facing escalation messages. The
// pipeline emits one notification per permanent failure; nothing in
// the retry path depends on delivery succeeding.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier sends an operator-addressed message.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// SMTPNotifier sends notifications as plain-text email.
type SMTPNotifier struct {
	addr   string
	from   string
	to     string
	logger *slog.Logger

	// sendMail is injectable for testing; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a notifier delivering to the configured
// operator address via the given SMTP server.
func NewSMTPNotifier(addr, from, to string, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:     addr,
		from:     from,
		to:       to,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// Notify implements Notifier.
func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := n.sendMail(n.addr, nil, n.from, []string{n.to}, []byte(msg.String())); err != nil {
		n.logger.Error("failed to send operator notification",
			"subject", subject,
			"error", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("sent operator notification", "subject", subject)
	return nil
}

// LogNotifier records notifications at error level. It is the
// fallback channel when SMTP is not configured, so escalations are
// never silently dropped.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, subject, body string) error {
	n.logger.Error("operator notification",
		"subject", subject,
		"body", body)
	return nil
}

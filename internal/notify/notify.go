// Package notify delivers email notifications over SMTP, falling back to
// the log when no mail account is configured.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"autohub/internal/config"
	"autohub/internal/domain/services"
)

// SMTPNotifier implements the Notifier interface. The fallback keeps
// notification flows working in dev environments with no SMTP account:
// messages land in the log instead of a mailbox.
type SMTPNotifier struct {
	host      string
	port      string
	user      string
	password  string
	from      string
	defaultTo string
	logger    *slog.Logger
}

// NewSMTPNotifier creates a notifier from configuration.
func NewSMTPNotifier(cfg *config.Config, logger *slog.Logger) services.Notifier {
	return &SMTPNotifier{
		host:      cfg.SMTPServer,
		port:      cfg.SMTPPort,
		user:      cfg.SMTPUser,
		password:  cfg.SMTPPassword,
		from:      cfg.SMTPFrom,
		defaultTo: cfg.NotifyDefaultTo,
		logger:    logger,
	}
}

// Send delivers one message. SMTP failures degrade to the console path
// rather than erroring: notifications are best-effort by contract.
func (n *SMTPNotifier) Send(ctx context.Context, msg *services.EmailMessage) (*services.SendResult, error) {
	recipient := strings.TrimSpace(msg.To)
	if recipient == "" {
		recipient = n.defaultTo
	}

	if n.user != "" && n.password != "" {
		if err := n.sendSMTP(recipient, msg.Subject, msg.Body); err != nil {
			n.logger.Error("smtp delivery failed", "to", recipient, "error", err)
		} else {
			n.logger.Info("notification emailed", "to", recipient, "subject", msg.Subject)
			return &services.SendResult{Status: "sent", To: recipient, Method: "smtp"}, nil
		}
	}

	n.logger.Info("notification logged",
		"to", recipient,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return &services.SendResult{Status: "logged", To: recipient, Method: "console"}, nil
}

// sendSMTP submits the message over STARTTLS with plain auth.
func (n *SMTPNotifier) sendSMTP(to, subject, body string) error {
	addr := net.JoinHostPort(n.host, n.port)
	auth := smtp.PlainAuth("", n.user, n.password, n.host)

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", n.from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return smtp.SendMail(addr, auth, n.from, []string{to}, []byte(sb.String()))
}

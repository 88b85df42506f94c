package services

import "context"

// EmailMessage is an outbound notification
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendResult reports how a message left the system: status "sent" with
// method "smtp" when a mail server accepted it, status "logged" with
// method "console" when it was only written to the log.
type SendResult struct {
	Status string `json:"status"`
	To     string `json:"to"`
	Method string `json:"method"`
}

// Notifier delivers notifications to users
type Notifier interface {
	// Send delivers one message. When no mail server is configured, or
	// the server rejects the message, the notification is logged instead
	// and the result reports method "console".
	Send(ctx context.Context, msg *EmailMessage) (*SendResult, error)
}

package notify

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"autohub/internal/config"
	"autohub/internal/domain/services"
)

func newConsoleNotifier() services.Notifier {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewSMTPNotifier(&config.Config{
		NotifyDefaultTo: "fallback@demo.local",
	}, logger)
}

func TestSend_ConsoleFallbackWithoutSMTPAccount(t *testing.T) {
	notifier := newConsoleNotifier()

	result, err := notifier.Send(context.Background(), &services.EmailMessage{
		To:      "maya@demo.local",
		Subject: "Results delivered",
		Body:    "<p>Done.</p>",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if result.Method != "console" {
		t.Errorf("expected console method, got %q", result.Method)
	}
	if result.Status != "logged" {
		t.Errorf("expected logged status, got %q", result.Status)
	}
	if result.To != "maya@demo.local" {
		t.Errorf("expected recipient kept, got %q", result.To)
	}
}

func TestSend_EmptyRecipientUsesDefault(t *testing.T) {
	notifier := newConsoleNotifier()

	result, err := notifier.Send(context.Background(), &services.EmailMessage{
		To:      "   ",
		Subject: "Results delivered",
		Body:    "<p>Done.</p>",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if result.To != "fallback@demo.local" {
		t.Errorf("expected default recipient, got %q", result.To)
	}
}

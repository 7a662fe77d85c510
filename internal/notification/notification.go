package notification

import (
	"context"
	"log/slog"
)

const (
	// KindCashoutReceipt indicates a merchant cash-out settlement receipt.
	KindCashoutReceipt = "cashout_receipt"

	// KindPurchaseReceipt indicates a token purchase confirmation.
	KindPurchaseReceipt = "purchase_receipt"
)

// Message describes an outbound email payload.
type Message struct {
	Kind    string
	To      string
	Subject string
	HTML    string
}

// Notifier delivers notifications to downstream systems. Delivery is
// best-effort: callers log failures and continue.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Used in dev mode when no SMTP host is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "to", message.To, "subject", message.Subject)
	return nil
}

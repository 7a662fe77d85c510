package notification

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/tokenmart/tokenmart/internal/config"
)

// MailNotifier delivers notifications over SMTP.
type MailNotifier struct {
	client *mail.Client
	from   string
}

// NewMailNotifier constructs a notifier backed by the configured SMTP relay.
func NewMailNotifier(cfg config.SMTP) (*MailNotifier, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &MailNotifier{client: client, from: cfg.From}, nil
}

// Send composes and delivers the message as an HTML email.
func (n *MailNotifier) Send(ctx context.Context, message Message) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"

	"stockflow/pkg/logger"
)

// ChatSender posts a text message to a chat.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// MailSender sends a plain-text email.
type MailSender interface {
	SendText(ctx context.Context, to []string, subject, body string) error
}

// DispatcherConfig lists the recipients of every notification.
type DispatcherConfig struct {
	ChatID string
	Emails []string
}

// Dispatcher renders stored events and fans them out to chat and email.
// A nil sender or an empty recipient list disables that channel.
type Dispatcher struct {
	chat ChatSender
	mail MailSender
	cfg  DispatcherConfig
	log  *logger.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(chat ChatSender, mail MailSender, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		chat: chat,
		mail: mail,
		cfg:  cfg,
		log:  logger.Default().WithComponent("notify"),
	}
}

// Dispatch delivers one event. Channels are attempted independently and
// their failures joined, so the relay retries the event as a whole.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload []byte) error {
	msg, err := Render(EventType(eventType), payload)
	if err != nil {
		return err
	}

	var errs []error
	delivered := 0
	if d.chat != nil && d.cfg.ChatID != "" {
		if err := d.chat.SendMessage(ctx, d.cfg.ChatID, msg.Body); err != nil {
			errs = append(errs, fmt.Errorf("chat: %w", err))
		} else {
			delivered++
		}
	}
	if d.mail != nil && len(d.cfg.Emails) > 0 {
		if err := d.mail.SendText(ctx, d.cfg.Emails, msg.Subject, msg.Body); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			delivered++
		}
	}

	if delivered == 0 && len(errs) == 0 {
		d.log.Debugw("notification has no recipients", "event_type", eventType)
		return nil
	}
	d.log.Infow("notification dispatched", "event_type", eventType, "channels", delivered)
	return errors.Join(errs...)
}

package delivery

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"stockflow/internal/domain/notify"
	"stockflow/internal/domain/procurement"
)

// MailConfig configures the SMTP mailer.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Company  string
}

// Mailer sends notifications and purchase orders over SMTP.
type Mailer struct {
	client  *mail.Client
	from    string
	company string
}

var (
	_ notify.MailSender  = (*Mailer)(nil)
	_ procurement.Sender = (*Mailer)(nil)
)

// NewMailer creates a Mailer. No connection is opened until a message is sent.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	opts := []mail.Option{mail.WithTLSPortPolicy(mail.TLSOpportunistic)}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	company := cfg.Company
	if company == "" {
		company = "StockFlow"
	}
	return &Mailer{client: client, from: cfg.From, company: company}, nil
}

// SendText sends a plain-text message to every recipient.
func (m *Mailer) SendText(ctx context.Context, to []string, subject, body string) error {
	msg, err := m.textMessage(to, subject, body)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail %q: %w", subject, err)
	}
	return nil
}

// SendOrder mails the order PDF to the supplier.
func (m *Mailer) SendOrder(ctx context.Context, address string, o *procurement.Order, pdf []byte) error {
	msg, err := m.orderMessage(address, o, pdf)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send purchase order %s to %s: %w", o.PONumber, address, err)
	}
	return nil
}

func (m *Mailer) textMessage(to []string, subject, body string) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no mail recipients")
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *Mailer) orderMessage(address string, o *procurement.Order, pdf []byte) (*mail.Msg, error) {
	body := fmt.Sprintf("Dear partner,\n\nPlease find purchase order %s attached.\n\nBest regards,\n%s", o.PONumber, m.company)
	msg, err := m.textMessage([]string{address}, "Purchase order "+o.PONumber, body)
	if err != nil {
		return nil, err
	}
	if err := msg.AttachReader(o.PONumber+".pdf", bytes.NewReader(pdf)); err != nil {
		return nil, fmt.Errorf("attach purchase order: %w", err)
	}
	return msg, nil
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// DefaultRetryDelay is the fixed pause between email attempts.
const DefaultRetryDelay = 5 * time.Second

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport makes a single delivery attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool
	Timeout  time.Duration
}

// SMTPTransport sends mail through an SMTP relay, dialing per message.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport validates cfg and returns a transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("notify: smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPTransport{cfg: cfg}, nil
}

// Send delivers msg once.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return fmt.Errorf("notify: from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("notify: recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	if t.cfg.SSL {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

// LogTransport only logs messages. Used when no SMTP relay is configured.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport returns transport.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs msg.
func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("email (smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Mailer adds a bounded retry loop on top of a Transport.
type Mailer struct {
	transport Transport
	delay     time.Duration
	logger    *zap.Logger
}

// NewMailer builds a mailer. A negative delay selects DefaultRetryDelay.
func NewMailer(transport Transport, delay time.Duration, logger *zap.Logger) *Mailer {
	if delay < 0 {
		delay = DefaultRetryDelay
	}
	return &Mailer{transport: transport, delay: delay, logger: logger}
}

// SendEmail tries once and then up to retries more times, waiting the fixed delay between
// attempts. It returns the last error when every attempt fails.
func (m *Mailer) SendEmail(ctx context.Context, subject, body string, retries int, recipient string) error {
	if retries < 0 {
		retries = 0
	}
	msg := Message{To: recipient, Subject: subject, Body: body}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			m.logger.Info("retrying email", zap.String("subject", subject), zap.Int("attempts_left", retries-attempt+1))
			if err := sleep(ctx, m.delay); err != nil {
				return err
			}
		}

		lastErr = m.transport.Send(ctx, msg)
		if lastErr == nil {
			m.logger.Info("email sent", zap.String("subject", subject), zap.String("recipient", recipient))
			return nil
		}
		m.logger.Warn("email attempt failed", zap.String("subject", subject), zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	return fmt.Errorf("notify: email not sent after %d attempts: %w", retries+1, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

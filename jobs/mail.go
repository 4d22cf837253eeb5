package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wneessen/go-mail"

	jobmetrics "github.com/ai-secretary/ai-secretary/internal/jobs"
)

// MailSender delivers one message.
type MailSender interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// SMTPConfig locates the relay. Auth is used only when Username is set.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	From    string
	deliver func(ctx context.Context, msgs ...*mail.Msg) error
}

// NewSMTPSender builds a sender that upgrades to TLS when the relay offers it.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{From: cfg.From, deliver: client.DialAndSendWithContext}, nil
}

// Send delivers msg. Unusable addresses are not retried.
func (s *SMTPSender) Send(ctx context.Context, msg SendEmailPayload) error {
	m, err := s.message(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return s.deliver(ctx, m)
}

func (s *SMTPSender) message(msg SendEmailPayload) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// SendEmailJob handles TaskTypeSendEmail.
type SendEmailJob struct {
	Sender  MailSender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle delivers the payload. Malformed payloads are dropped.
func (j *SendEmailJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	var payload SendEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.To == "" {
		return fmt.Errorf("send email payload: %w", asynq.SkipRetry)
	}
	tracker := j.metrics().Track(TaskTypeSendEmail)
	defer func() {
		err = tracker.End(err)
	}()
	if err := j.Sender.Send(ctx, payload); err != nil {
		j.log().Warn("send email", slog.String("subject", payload.Subject), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *SendEmailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *SendEmailJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

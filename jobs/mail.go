package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wneessen/go-mail"

	jobmetrics "github.com/rfid-attendance/attendance/internal/jobs"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// SMTPConfig locates the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer sends plain-text mail through an SMTP relay with go-mail.
type SMTPMailer struct {
	cfg     SMTPConfig
	timeout time.Duration
	now     func() time.Time
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: 10 * time.Second, now: time.Now}
}

// Send delivers msg, upgrading to TLS when the relay offers STARTTLS and
// authenticating when a user is configured.
func (m *SMTPMailer) Send(ctx context.Context, msg SendEmailPayload) error {
	message, err := m.buildMessage(msg)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("jobs: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("jobs: smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

func (m *SMTPMailer) buildMessage(msg SendEmailPayload) (*mail.Msg, error) {
	message := mail.NewMsg()
	if err := message.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("jobs: mail from %q: %w", m.cfg.From, err)
	}
	if err := message.To(msg.To); err != nil {
		return nil, fmt.Errorf("jobs: mail to %q: %w", msg.To, err)
	}
	message.Subject(msg.Subject)
	message.SetDateWithValue(m.now().UTC())
	message.SetMessageID()
	message.SetBodyString(mail.TypeTextPlain, msg.Body)
	return message, nil
}

// EmailJob handles TaskTypeSendEmail tasks.
type EmailJob struct {
	mailer  Mailer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewEmailJob constructs an EmailJob.
func NewEmailJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *EmailJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailJob{mailer: mailer, logger: logger, metrics: metrics}
}

// Handle decodes and delivers one message. Undecodable payloads are not retried.
func (j *EmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTypeSendEmail)
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("jobs: decode email payload: %v: %w", err, asynq.SkipRetry))
	}
	if err := j.mailer.Send(ctx, payload); err != nil {
		j.logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

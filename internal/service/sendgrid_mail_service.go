package service

import (
	"context"
	"fmt"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailService sends mail via the SendGrid v3 API
type SendGridMailService struct {
	client *sendgrid.Client
	cfg    config.SendGridConfig
	logger *logging.Logger
}

// NewSendGridMailService creates a new SendGrid mail service. A missing API
// key is reported when sending.
func NewSendGridMailService(cfg config.SendGridConfig, logger *logging.Logger) *SendGridMailService {
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &SendGridMailService{cfg: cfg, logger: logger}
	if cfg.APIKey != "" {
		s.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return s
}

func buildSendGridMessage(cfg config.SendGridConfig, email *form.Email) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(cfg.FromName, cfg.FromEmail))
	message.Subject = email.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", cfg.ToEmail))
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", email.Body))

	for _, a := range email.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(a.Base64Content)
		attachment.SetType(a.ContentType)
		attachment.SetFilename(a.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	return message
}

// Send sends an email via SendGrid
func (s *SendGridMailService) Send(ctx context.Context, email *form.Email) error {
	if s.client == nil {
		return fmt.Errorf("%w: SendGrid API key not configured", ErrMissingCredentials)
	}
	if s.cfg.FromEmail == "" || s.cfg.ToEmail == "" {
		return ErrMissingMailbox
	}

	response, err := s.client.SendWithContext(ctx, buildSendGridMessage(s.cfg, email))
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Debug("email sent via sendgrid: %q (status %d)", email.Subject, response.StatusCode)
	return nil
}

var _ MailSender = (*SendGridMailService)(nil)

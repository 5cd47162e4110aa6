package service

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES v2 client used here
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailService sends mail via AWS SES
type SESMailService struct {
	client sesAPI
	cfg    config.SESConfig
	logger *logging.Logger
}

// NewSESMailService creates a new SES mail service
func NewSESMailService(client sesAPI, cfg config.SESConfig, logger *logging.Logger) *SESMailService {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &SESMailService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Send sends a simple message, or a raw MIME message when there are attachments
func (s *SESMailService) Send(ctx context.Context, email *form.Email) error {
	if s.client == nil {
		return fmt.Errorf("%w: SES client not configured", ErrMissingCredentials)
	}
	if s.cfg.FromEmail == "" || s.cfg.ToEmail == "" {
		return ErrMissingMailbox
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.cfg.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{s.cfg.ToEmail},
		},
	}

	if len(email.Attachments) == 0 {
		input.Content = &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(email.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(email.Body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		}
	} else {
		raw, err := buildRawMessage(s.cfg.FromEmail, s.cfg.ToEmail, email)
		if err != nil {
			return fmt.Errorf("failed to build raw message: %w", err)
		}
		input.Content = &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		}
	}

	output, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}

	s.logger.Debug("email sent via SES: %q (message id %s)", email.Subject, aws.ToString(output.MessageId))
	return nil
}

// buildRawMessage writes a multipart/mixed message with a plain-text part
// followed by one part per attachment.
func buildRawMessage(from, to string, email *form.Email) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(textPart)
	if _, err := qp.Write([]byte(email.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	for _, a := range email.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		// Content arrives base64 encoded already, only wrap it
		if _, err := part.Write([]byte(wrapLines(a.Base64Content, 76))); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", email.Subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/mixed; boundary=\"" + mw.Boundary() + "\"\r\n\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func wrapLines(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\r\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

var _ MailSender = (*SESMailService)(nil)

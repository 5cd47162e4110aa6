package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/logging"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/osa911/formrelay/internal/service"

// MailSender relays a rendered form email to its recipient.
// Implementations can be swapped (Graph, SendGrid, SES) without changing callers.
type MailSender interface {
	Send(ctx context.Context, email *form.Email) error
}

// NewMailSender builds the relay selected by cfg.MailProvider. Every error
// returned by the relay's Send wraps ErrRelay.
func NewMailSender(ctx context.Context, cfg *config.Config, client *http.Client, logger *logging.Logger) (MailSender, error) {
	var sender MailSender

	switch cfg.MailProvider {
	case config.MailProviderGraph, "":
		sender = NewGraphMailService(cfg.Graph, client)
	case config.MailProviderSendGrid:
		sender = NewSendGridMailService(cfg.SendGrid, logger)
	case config.MailProviderSES:
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.SES.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.SES.Region))
		}
		if client != nil {
			opts = append(opts, awsconfig.WithHTTPClient(client))
		}
		if cfg.SES.AccessKeyID != "" && cfg.SES.SecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		sender = NewSESMailService(sesv2.NewFromConfig(awsCfg), cfg.SES, logger)
	case config.MailProviderStub:
		sender = NewStubMailService(logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}

	return &relay{provider: cfg.MailProvider, sender: sender}, nil
}

// relay traces a send and marks its failures as relay errors
type relay struct {
	provider string
	sender   MailSender
}

func (r *relay) Send(ctx context.Context, email *form.Email) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mail.send")
	defer span.End()

	span.SetAttributes(
		attribute.String("mail.provider", r.provider),
		attribute.String("form.type", email.FormType),
		attribute.Int("mail.attachments", len(email.Attachments)),
	)

	if err := r.sender.Send(ctx, email); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay failed")
		return fmt.Errorf("%w: %w", ErrRelay, err)
	}
	return nil
}

// StubMailService logs the email but doesn't send it
type StubMailService struct {
	logger *logging.Logger
}

// NewStubMailService creates a stub mail sender for local development
func NewStubMailService(logger *logging.Logger) *StubMailService {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &StubMailService{logger: logger}
}

func (s *StubMailService) Send(ctx context.Context, email *form.Email) error {
	s.logger.Info("stub mail service: would send %q with %d attachment(s)", email.Subject, len(email.Attachments))
	s.logger.Debug("stub mail service body:\n%s", email.Body)
	return nil
}

var _ MailSender = (*StubMailService)(nil)

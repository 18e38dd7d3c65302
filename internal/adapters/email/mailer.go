package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"conferencecentral/internal/domain"
)

// SESConfig selects the SES region and, optionally, static credentials. Without both keys
// the default AWS credential chain is used.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// MailerConfig selects and configures the mailer. Provider is "ses" or "noop".
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// sesAPI is the part of the SES client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer builds the configured mailer. Unknown providers fall back to noop with a warning.
func NewMailer(ctx context.Context, cfg MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch cfg.Provider {
	case "ses":
		from, err := mail.ParseAddress(cfg.FromAddress)
		if err != nil {
			return nil, fmt.Errorf("ses mailer: from address: %w", err)
		}
		from.Name = cfg.FromName
		awsCfg, err := loadSESConfig(ctx, cfg.SES)
		if err != nil {
			return nil, fmt.Errorf("ses mailer: %w", err)
		}
		return &sesMailer{client: ses.NewFromConfig(awsCfg), from: from.String(), logger: logger}, nil
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", cfg.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

func loadSESConfig(ctx context.Context, c SESConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

type sesMailer struct {
	client sesAPI
	from   string
	logger *slog.Logger
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *sesMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	rcpt, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("%w: recipient %q: %v", domain.ErrValidation, msg.To, err)
	}
	if msg.HTML == "" && msg.Text == "" {
		return fmt.Errorf("%w: message to %s has no body", domain.ErrValidation, rcpt.Address)
	}
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	if msg.Text != "" {
		body.Text = utf8Content(msg.Text)
	}
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{rcpt.Address}},
		Message:     &types.Message{Subject: utf8Content(msg.Subject), Body: body},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent", "message_id", aws.ToString(out.MessageId))
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	n.logger.DebugContext(ctx, "email dropped by noop mailer", "subject", msg.Subject)
	return nil
}

// Package ses implements a Provider that sends serialized emails via AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/provider"
)

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// SESProviderConfig holds the configuration for creating a SESProvider.
type SESProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Sender overrides the envelope sender. When empty the message's From
	// address is used.
	Sender string
}

// SESProvider sends raw MIME documents via the AWS SES v2 API.
type SESProvider struct {
	sender string
	client SendEmailAPI
	retry  provider.RetryPolicy
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration.
func New(ctx context.Context, cfg SESProviderConfig) (*SESProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(cfg.Sender, sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a SESProvider with a custom client, used for testing.
func NewWithClient(sender string, client SendEmailAPI) *SESProvider {
	return &SESProvider{
		sender: sender,
		client: client,
		retry:  provider.RetryPolicy{MaxRetries: maxRetries, BaseDelay: baseRetryDelay},
	}
}

// Send delivers the serialized document as a raw SES message. The envelope
// lists the To, Cc and Bcc recipients so blind copies are delivered without
// appearing in the document.
func (s *SESProvider) Send(ctx context.Context, exp *email.Export) error {
	input, err := s.buildInput(exp)
	if err != nil {
		return err
	}

	err = s.retry.Do(ctx,
		func(ctx context.Context) error {
			_, err := s.client.SendEmail(ctx, input)
			return err
		},
		func(err error, attempt int) (time.Duration, error) {
			slog.Warn("SES API error",
				"attempt", attempt,
				"max_retries", s.retry.MaxRetries,
				"error", err,
			)
			return s.retry.Backoff(attempt + 1), nil
		},
	)
	if err != nil {
		return fmt.Errorf("SES API request: %w", err)
	}

	slog.Info("message sent via SES", "file", exp.Filename)
	return nil
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// buildInput wraps the document in a raw SendEmailInput.
func (s *SESProvider) buildInput(exp *email.Export) (*sesv2.SendEmailInput, error) {
	env, err := provider.EnvelopeOf(exp)
	if err != nil {
		return nil, fmt.Errorf("building envelope: %w", err)
	}
	if len(env.All()) == 0 {
		return nil, fmt.Errorf("message %s has no recipients", exp.Filename)
	}

	sender := s.sender
	if sender == "" {
		sender = exp.Message.FromAddress
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses:  env.To,
			CcAddresses:  env.Cc,
			BccAddresses: env.Bcc,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{
				Data: exp.Data,
			},
		},
	}, nil
}

// Package mail delivers outbound email. Delivery is best effort: callers log
// failures but never surface them to the requester, which keeps the password
// reset flow's anti-enumeration guarantee intact.
package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
)

// Dispatcher sends a single plain-text message.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// test seams, same pattern as the AWS wiring elsewhere in the project
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newSESClient = func(cfg aws.Config, optFns ...func(*sesv2.Options)) *sesv2.Client {
		return sesv2.NewFromConfig(cfg, optFns...)
	}

	sendEmail = func(c *sesv2.Client, ctx context.Context, in *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error) {
		return c.SendEmail(ctx, in)
	}
)

// SESDispatcher sends mail through AWS SESv2.
type SESDispatcher struct {
	sender string
	region string
}

func NewSESDispatcher(sender, region string) *SESDispatcher {
	return &SESDispatcher{sender: sender, region: region}
}

func (d *SESDispatcher) Send(ctx context.Context, to, subject, body string) error {
	cfg, err := loadDefaultAWSConfig(ctx, awsconfig.WithRegion(d.region))
	if err != nil {
		return fmt.Errorf("aws config error: %w", err)
	}

	client := newSESClient(cfg)

	_, err = sendEmail(client, ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(d.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send error: %w", err)
	}

	return nil
}

// LogDispatcher writes messages to the log instead of sending them. Used for
// local development where no SES identity is configured. The message body may
// contain a reset link, so it is logged at debug level only.
type LogDispatcher struct {
	logger logging.Logger
}

func NewLogDispatcher(logger logging.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With("module", "mail")}
}

func (d *LogDispatcher) Send(ctx context.Context, to, subject, body string) error {
	d.logger.Debug(ctx, "email not sent (log dispatcher)", "to", to, "subject", subject, "body", body)
	return nil
}

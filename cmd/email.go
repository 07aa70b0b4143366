package main

import (
	"context"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/email/awsses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sports-festival/festival-registration/api"
)

var _ email.Sender = &EmailLogger{}

// EmailLogger logs confirmation emails instead of sending them, for local
// dev.
type EmailLogger struct {
	logger *slog.Logger
}

func (el *EmailLogger) SendEmail(ctx context.Context, e email.Email) error {
	el.logger.Info("email that would be sent",
		slog.Any("to", e.ToAddresses),
		slog.String("subject", e.Subject))

	return nil
}

func createEmailSender(awsCfg aws.Config, logger *slog.Logger, env api.Environment) (email.Sender, error) {
	if env == api.LOCAL {
		return &EmailLogger{logger: logger}, nil
	}

	return awsses.NewAWSSESSender(sesv2.NewFromConfig(awsCfg)), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
)

// EmailService handles email sending via AWS SES (SESv2 API)
type EmailService struct {
	sesClient *sesv2.Client
	fromEmail string
	loginURL  string
}

// NewEmailService creates a new email service instance using AWS SDK (role-based)
func NewEmailService(cfg aws.Config) *EmailService {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("SES_AWS_REGION")
		if region == "" {
			if os.Getenv("AWS_DEFAULT_REGION") != "" {
				region = os.Getenv("AWS_DEFAULT_REGION")
			} else {
				region = "eu-central-1"
			}
		}
	}
	cfg.Region = region
	loginURL := os.Getenv("FRONTEND_ORIGIN")
	if loginURL == "" {
		loginURL = "http://localhost:5173"
	}
	return &EmailService{
		sesClient: sesv2.NewFromConfig(cfg),
		fromEmail: os.Getenv("SES_FROM_EMAIL"),
		loginURL:  loginURL,
	}
}

// SendCredentialEmail sends the approval email carrying the recipient's
// temporary credential. Returns the provider message id. Exactly one email
// per call; callers own any dedup.
func (e *EmailService) SendCredentialEmail(ctx context.Context, to, name, tempPass string) (string, error) {
	subject := "Welcome to SocietyPro - Approval Granted"
	body := e.generateCredentialHTML(to, name, tempPass)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{to}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Html: &sestypes.Content{Data: aws.String(body)}},
			},
		},
	}

	out, err := e.sesClient.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// ProviderError unwraps a provider-reported send failure. Transport-level
// failures (provider unreachable) return ok=false.
func ProviderError(err error) (smithy.APIError, bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// generateCredentialHTML creates the HTML email template
func (e *EmailService) generateCredentialHTML(to, name, tempPass string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
    <div style="text-align: center; margin-bottom: 20px;">
        <h1 style="color: #2563eb;">Welcome to SocietyPro!</h1>
        <p style="color: #64748b; font-size: 16px;">Hello %s, your account has been approved.</p>
    </div>

    <div style="background-color: #f8fafc; padding: 20px; border-radius: 8px; margin-bottom: 20px;">
        <h3 style="margin-top: 0; color: #1e293b;">Login Credentials</h3>
        <p style="margin: 5px 0;"><strong>Username:</strong> %s</p>
        <p style="margin: 5px 0;"><strong>Password:</strong> %s</p>
    </div>

    <a href="%s" style="display: block; width: 100%%; text-align: center; background-color: #2563eb; color: white; padding: 12px 0; text-decoration: none; border-radius: 6px; font-weight: bold;">Login to Dashboard</a>

    <p style="text-align: center; margin-top: 20px; font-size: 12px; color: #94a3b8;">Please change your password after your first login.</p>
</div>`,
		name,
		to,
		tempPass,
		e.loginURL,
	)
}

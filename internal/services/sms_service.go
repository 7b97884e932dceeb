package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/societypro/admin-service/internal/logging"
)

// SmsService sends approval notifications over AWS SNS.
type SmsService struct {
	client *sns.Client
}

// NewSmsService creates an SNS-backed SMS sender.
func NewSmsService(cfg aws.Config) *SmsService {
	return &SmsService{client: sns.NewFromConfig(cfg)}
}

// SendSMS delivers one transactional message. The phone number must be in
// E.164 format.
func (s *SmsService) SendSMS(ctx context.Context, phoneNumber, message string) error {
	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(phoneNumber),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		return err
	}

	logging.LogKV("info", "sms sent", map[string]interface{}{
		"phone":      phoneNumber,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

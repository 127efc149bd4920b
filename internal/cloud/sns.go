package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

// SNSClient wraps AWS SNS client for operator notifications
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes a message to the configured topic
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	result, err := c.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Msg("sns notification sent")
	return nil
}

// SendAlertNotification formats a dashboard alert for operators
func (c *SNSClient) SendAlertNotification(ctx context.Context, a domain.Alert) error {
	subject := fmt.Sprintf("Water System %s: %s", a.Type, a.Title)
	message := fmt.Sprintf(
		"Water Transfer Alert\n\n"+
			"Title: %s\n"+
			"Priority: %s\n"+
			"Message: %s\n"+
			"Time: %s\n\n"+
			"Alert ID: %s",
		a.Title,
		a.Priority,
		a.Message,
		a.Timestamp.Format(time.RFC3339),
		a.ID,
	)

	return c.SendAlert(ctx, subject, message)
}

// SendFaultNotification formats a plant fault for operators
func (c *SNSClient) SendFaultNotification(ctx context.Context, f domain.Fault) error {
	subject := fmt.Sprintf("Water System Fault: %s", f.Type)
	message := fmt.Sprintf(
		"Equipment Fault Detected\n\n"+
			"Description: %s\n"+
			"Severity: %s\n"+
			"Time: %s\n\n"+
			"Fault ID: %s\n"+
			"Please inspect the installation.",
		f.Description,
		f.Severity,
		f.Timestamp.Format(time.RFC3339),
		f.ID,
	)

	return c.SendAlert(ctx, subject, message)
}

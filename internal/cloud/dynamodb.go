package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient keeps an append-only log of alerts and faults
type DynamoDBClient struct {
	svc   *dynamodb.Client
	table string
}

// NewDynamoDBClient creates a new DynamoDB client instance
func NewDynamoDBClient(ctx context.Context, region, table string) (*DynamoDBClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	return &DynamoDBClient{
		svc:   dynamodb.NewFromConfig(cfg),
		table: table,
	}, nil
}

// EventItem is the DynamoDB shape shared by alerts and faults
type EventItem struct {
	EventID   string `dynamodbav:"eventId"`
	Kind      string `dynamodbav:"kind"`
	Timestamp int64  `dynamodbav:"timestamp"`
	Type      string `dynamodbav:"type"`
	Level     string `dynamodbav:"level"`
	Text      string `dynamodbav:"text"`
	Closed    bool   `dynamodbav:"closed"`
}

func AlertItem(a domain.Alert) EventItem {
	return EventItem{
		EventID:   a.ID,
		Kind:      "alert",
		Timestamp: a.Timestamp.Unix(),
		Type:      string(a.Type),
		Level:     string(a.Priority),
		Text:      a.Title + ": " + a.Message,
		Closed:    a.IsAcknowledged,
	}
}

func FaultItem(f domain.Fault) EventItem {
	return EventItem{
		EventID:   f.ID,
		Kind:      "fault",
		Timestamp: f.Timestamp.Unix(),
		Type:      string(f.Type),
		Level:     string(f.Severity),
		Text:      f.Description,
		Closed:    f.IsResolved,
	}
}

// PutEvent stores an alert or fault item
func (c *DynamoDBClient) PutEvent(ctx context.Context, item EventItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put event in DynamoDB: %w", err)
	}

	return nil
}

// CloseEvent marks an alert acknowledged or a fault resolved
func (c *DynamoDBClient) CloseEvent(ctx context.Context, eventID string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"eventId": &types.AttributeValueMemberS{Value: eventID},
		},
		UpdateExpression: aws.String("SET closed = :closed, closedAt = :time"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":closed": &types.AttributeValueMemberBOOL{Value: true},
			":time":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())},
		},
	}

	if _, err := c.svc.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to close event: %w", err)
	}

	return nil
}

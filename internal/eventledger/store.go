package eventledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
)

// DefaultTTLWindow keeps records a little past Stripe's redelivery horizon.
const DefaultTTLWindow = 72 * time.Hour

// Store encapsulates processed-event operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. A zero ttlWindow falls back to
// DefaultTTLWindow.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTLWindow
	}
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Get retrieves the record for an event id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, eventID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"event_id": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get event record: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal event record: %w", err)
	}
	return &rec, nil
}

// MarkProcessed records the outcome for an event id if no record exists yet.
// Returns (created=true, nil) when this call wrote the record.
// Returns (created=false, nil) when a concurrent processor got there first;
// the stored record stands.
// Returns (created=false, err) on other errors.
func (s *Store) MarkProcessed(ctx context.Context, eventID, outcome, orderNumber, detail string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		EventID:     eventID,
		Outcome:     outcome,
		OrderNumber: orderNumber,
		Detail:      detail,
		ProcessedAt: now,
		ExpiresAt:   now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal event record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(event_id)"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put event record: %w", err)
	}
	return true, nil
}

func awsString(s string) *string { return &s }

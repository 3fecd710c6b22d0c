package orders

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

// PIDIndex is the GSI on the orders table keyed by stripe_pid. FindMatching
// narrows candidates through it before the field-by-field comparison.
const PIDIndex = "stripe_pid-index"

// transactBatchMax is DynamoDB's TransactWriteItems item limit.
const transactBatchMax = 100

// ErrOrderExists indicates a conditional create hit an existing order number.
var ErrOrderExists = errors.New("order number already exists")

// Store encapsulates operations on the orders and line-items tables.
type Store struct {
	client         aws.DynamoDBAPI
	tableName      string
	lineItemsTable string
	nowFunc        func() time.Time
}

// NewStore creates an orders Store over the two tables.
func NewStore(client aws.DynamoDBAPI, tableName, lineItemsTable string) *Store {
	return &Store{
		client:         client,
		tableName:      tableName,
		lineItemsTable: lineItemsTable,
		nowFunc:        time.Now,
	}
}

// FindMatching returns the stored order equal to the composite key, or
// (nil, nil) when nothing matches. The stripe_pid index keeps the candidate
// set to the handful of orders sharing the transaction id; the exact and
// case-insensitive comparisons happen here, not in the query.
func (s *Store) FindMatching(ctx context.Context, key CompositeKey) (*Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(PIDIndex),
		KeyConditionExpression: awsString("stripe_pid = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: key.StripePID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query orders by pid: %w", err)
	}

	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		if o.Matches(key) {
			return &o, nil
		}
	}
	return nil, nil
}

// Create writes the order header, stamping CreatedAt when unset. The
// condition guards against an order number collision ever overwriting an
// existing record.
func (s *Store) Create(ctx context.Context, order *Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.nowFunc()
	}

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_number)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrOrderExists
		}
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// AddLineItems writes the batch transactionally: within one transaction
// either every line item lands or none do. Batches beyond the DynamoDB
// transact limit are split; a failure partway is cleaned up by Delete.
func (s *Store) AddLineItems(ctx context.Context, items []LineItem) error {
	for start := 0; start < len(items); start += transactBatchMax {
		end := start + transactBatchMax
		if end > len(items) {
			end = len(items)
		}

		writes := make([]types.TransactWriteItem, 0, end-start)
		for _, it := range items[start:end] {
			m, err := attributevalue.MarshalMap(it)
			if err != nil {
				return fmt.Errorf("marshal line item: %w", err)
			}
			writes = append(writes, types.TransactWriteItem{
				Put: &types.Put{
					TableName: &s.lineItemsTable,
					Item:      m,
				},
			})
		}

		_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
			TransactItems: writes,
		})
		if err != nil {
			var tce *types.TransactionCanceledException
			if errors.As(err, &tce) {
				return fmt.Errorf("line item transaction canceled: %w", err)
			}
			return fmt.Errorf("transact line items: %w", err)
		}
	}
	return nil
}

// Delete removes the order header and any line items already written under
// it. It is the compensating action for a creation that failed partway; no
// header-only order may remain.
func (s *Store) Delete(ctx context.Context, orderNumber string) error {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.lineItemsTable,
		KeyConditionExpression: awsString("order_number = :on"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":on": &types.AttributeValueMemberS{Value: orderNumber},
		},
	})
	if err != nil {
		return fmt.Errorf("query line items: %w", err)
	}

	for _, item := range out.Items {
		var li LineItem
		if err := attributevalue.UnmarshalMap(item, &li); err != nil {
			return fmt.Errorf("unmarshal line item: %w", err)
		}
		_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
			TableName: &s.lineItemsTable,
			Key: map[string]types.AttributeValue{
				"order_number": &types.AttributeValueMemberS{Value: orderNumber},
				"line_item_id": &types.AttributeValueMemberS{Value: li.LineItemID},
			},
		})
		if err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}
	}

	_, err = s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_number": &types.AttributeValueMemberS{Value: orderNumber},
		},
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }

package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

// pendingMarker populates the sparse pending index; dispatched rows drop it.
const pendingMarker = "1"

type outboxItem struct {
	domain.OutboxEvent
	Pending   string `dynamodbav:"pending,omitempty"`
	CreatedNs int64  `dynamodbav:"created_ns"`
}

func outboxPut(table string, ev *domain.OutboxEvent) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(outboxItem{
		OutboxEvent: *ev,
		Pending:     pendingMarker,
		CreatedNs:   ev.CreatedAt.UnixNano(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbox event: %w", err)
	}
	return &types.Put{TableName: aws.String(table), Item: item}, nil
}

// OutboxRepo reads and settles events written transactionally by other repos.
type OutboxRepo struct {
	client    API
	tableName string
}

func NewOutboxRepo(client API, tableName string) *OutboxRepo {
	return &OutboxRepo{client: client, tableName: tableName}
}

// Pending returns up to limit undispatched events, oldest first.
func (r *OutboxRepo) Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexOutboxPending),
		KeyConditionExpression:    aws.String("#p = :p"),
		ExpressionAttributeNames:  map[string]string{"#p": fieldPending},
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strVal(pendingMarker)},
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	var page []outboxItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
		return nil, err
	}
	events := make([]domain.OutboxEvent, 0, len(page))
	for _, it := range page {
		events = append(events, it.OutboxEvent)
	}
	return events, nil
}

func (r *OutboxRepo) MarkDispatched(ctx context.Context, eventID string, at time.Time) error {
	ts, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEventID, eventID),
		UpdateExpression:          aws.String("SET dispatched_at = :d REMOVE #p"),
		ExpressionAttributeNames:  map[string]string{"#p": fieldPending},
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": ts},
	})
	return err
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID string, attempts int, lastErr string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"attempts":   attempts,
		"last_error": lastErr,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEventID, eventID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// Park records the final failure and drops the pending marker so the event
// leaves the pending index.
func (r *OutboxRepo) Park(ctx context.Context, eventID string, attempts int, lastErr string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"attempts":   attempts,
		"last_error": lastErr,
		"parked_at":  at,
	})
	if err != nil {
		return err
	}
	ue.Names["#p"] = fieldPending
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEventID, eventID),
		UpdateExpression:          aws.String(ue.Expr + " REMOVE #p"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

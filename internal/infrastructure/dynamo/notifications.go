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

type notificationItem struct {
	domain.Notification
	CreatedNs int64 `dynamodbav:"created_ns"`
}

func marshalNotification(n *domain.Notification) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(notificationItem{Notification: *n, CreatedNs: n.CreatedAt.UnixNano()})
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return item, nil
}

// NotificationRepo provides typed DynamoDB operations for the notifications table.
// PK: notification_id. GSI user_id-created_ns-index orders a recipient's rows by time.
type NotificationRepo struct {
	client    API
	tableName string
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := marshalNotification(n)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// PutMany batches a fan-out.
func (r *NotificationRepo) PutMany(ctx context.Context, ns []domain.Notification) error {
	items := make([]map[string]types.AttributeValue, 0, len(ns))
	for i := range ns {
		item, err := marshalNotification(&ns[i])
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	return batchPut(ctx, r.client, r.tableName, items)
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNotifID, notificationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var it notificationItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return &it.Notification, nil
}

// ListByRecipient returns the recipient's notifications newest first,
// restricted to [from, to] when both bounds are given.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID string, from, to *time.Time) ([]domain.Notification, error) {
	input := r.recipientQuery(userID)
	if from != nil && to != nil {
		input.KeyConditionExpression = aws.String("#u = :u AND #t BETWEEN :from AND :to")
		input.ExpressionAttributeNames["#t"] = fieldCreatedNs
		input.ExpressionAttributeValues[":from"] = numVal(from.UnixNano())
		input.ExpressionAttributeValues[":to"] = numVal(to.UnixNano())
	}
	input.ScanIndexForward = aws.Bool(false)

	var out []domain.Notification
	err := r.eachPage(ctx, input, func(page []notificationItem) {
		for _, it := range page {
			out = append(out, it.Notification)
		}
	})
	return out, err
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	input := r.unreadQuery(userID)
	input.Select = types.SelectCount
	total := 0
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkRead is idempotent; a missing row yields domain.ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldNotifID, notificationID),
		UpdateExpression:         aws.String("SET #r = :t"),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#r": fieldRead, "#id": fieldNotifID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	var ids []string
	err := r.eachPage(ctx, r.unreadQuery(userID), func(page []notificationItem) {
		for _, it := range page {
			ids = append(ids, it.NotificationID)
		}
	})
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, id := range ids {
		if err := r.MarkRead(ctx, id); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (r *NotificationRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	var keys []map[string]types.AttributeValue
	err := r.eachPage(ctx, r.recipientQuery(userID), func(page []notificationItem) {
		for _, it := range page {
			keys = append(keys, strKey(fieldNotifID, it.NotificationID))
		}
	})
	if err != nil {
		return 0, err
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

func (r *NotificationRepo) recipientQuery(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotifUser),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	}
}

func (r *NotificationRepo) unreadQuery(userID string) *dynamodb.QueryInput {
	input := r.recipientQuery(userID)
	input.FilterExpression = aws.String("#r = :f")
	input.ExpressionAttributeNames["#r"] = fieldRead
	input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	return input
}

func (r *NotificationRepo) eachPage(ctx context.Context, input *dynamodb.QueryInput, fn func([]notificationItem)) error {
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return err
		}
		var page []notificationItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return err
		}
		fn(page)
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

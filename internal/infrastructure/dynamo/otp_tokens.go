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

// otpItem is the stored shape of a token. created_ns orders the
// user_purpose GSI; expires_ns drives the reaper filter; ttl lets DynamoDB
// expire rows the reaper has not reached yet.
type otpItem struct {
	domain.OtpToken
	UserPurpose string `dynamodbav:"user_purpose"`
	CreatedNs   int64  `dynamodbav:"created_ns"`
	ExpiresNs   int64  `dynamodbav:"expires_ns"`
	TTL         int64  `dynamodbav:"ttl"`
}

func userPurposeKey(userID string, purpose domain.OtpPurpose) string {
	return userID + "#" + string(purpose)
}

// OtpRepo stores one-time codes. PK: token_id.
// GSI user_purpose-created_ns-index serves newest-first lookups per (user, purpose).
type OtpRepo struct {
	client    API
	tableName string
	users     *UserRepo
}

func NewOtpRepo(client API, tableName string, users *UserRepo) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName, users: users}
}

func (r *OtpRepo) Insert(ctx context.Context, t *domain.OtpToken) error {
	item, err := attributevalue.MarshalMap(otpItem{
		OtpToken:    *t,
		UserPurpose: userPurposeKey(t.UserID, t.Purpose),
		CreatedNs:   t.CreatedAt.UnixNano(),
		ExpiresNs:   t.ExpiresAt.UnixNano(),
		TTL:         t.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal otp token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(token_id)"),
	})
	return err
}

// ListActive returns up to limit unconsumed tokens for (user, purpose),
// newest first. Expired rows are included; the caller decides.
func (r *OtpRepo) ListActive(ctx context.Context, userID string, purpose domain.OtpPurpose, limit int) ([]domain.OtpToken, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexOtpActive),
		KeyConditionExpression:   aws.String("#k = :k"),
		FilterExpression:         aws.String("attribute_not_exists(#c)"),
		ExpressionAttributeNames: map[string]string{"#k": fieldUserPurpose, "#c": fieldConsumedAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k": strVal(userPurposeKey(userID, purpose)),
		},
		ScanIndexForward: aws.Bool(false),
	}
	var tokens []domain.OtpToken
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []otpItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		for _, it := range page {
			tokens = append(tokens, it.OtpToken)
			if len(tokens) == limit {
				return tokens, nil
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return tokens, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Consume marks the token consumed only if no one else has, and applies mut
// in the same transaction. The loser of a race gets domain.ErrAlreadyConsumed.
func (r *OtpRepo) Consume(ctx context.Context, t *domain.OtpToken, consumedAt time.Time, mut *domain.UserMutation) error {
	at, err := attributevalue.Marshal(consumedAt)
	if err != nil {
		return fmt.Errorf("marshal consumed_at: %w", err)
	}
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:                aws.String(r.tableName),
			Key:                      strKey(fieldTokenID, t.TokenID),
			UpdateExpression:         aws.String("SET #c = :c"),
			ConditionExpression:      aws.String("attribute_exists(#id) AND attribute_not_exists(#c)"),
			ExpressionAttributeNames: map[string]string{"#c": fieldConsumedAt, "#id": fieldTokenID},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": at,
			},
		}},
	}
	// failure reason per transaction item, in order
	reasons := []error{domain.ErrAlreadyConsumed}
	if mut != nil {
		mutItems, err := r.users.mutationItems(mut, consumedAt)
		if err != nil {
			return err
		}
		items = append(items, mutItems...)
		reasons = append(reasons, domain.ErrNotFound)
		for range mutItems[1:] {
			reasons = append(reasons, domain.ErrEmailAlreadyRegistered)
		}
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if codes, ok := cancellationCodes(err); ok {
		for i, code := range codes {
			if conditionFailed(code) && i < len(reasons) {
				return fmt.Errorf("consume otp: %w", reasons[i])
			}
		}
		return fmt.Errorf("consume otp: %w", domain.ErrConflict)
	}
	return err
}

// DeleteReapable removes every consumed row and every row whose expiry is
// strictly before now.
func (r *OtpRepo) DeleteReapable(ctx context.Context, now time.Time) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("attribute_exists(#c) OR #e < :now"),
		ProjectionExpression:     aws.String("#id"),
		ExpressionAttributeNames: map[string]string{"#c": fieldConsumedAt, "#e": fieldExpiresNs, "#id": fieldTokenID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": numVal(now.UnixNano()),
		},
	}
	var keys []map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return 0, err
		}
		for _, it := range out.Items {
			keys = append(keys, map[string]types.AttributeValue{fieldTokenID: it[fieldTokenID]})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

// DeleteByUser removes all tokens of a user regardless of state.
func (r *OtpRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexOtpUser),
		KeyConditionExpression:    aws.String("#u = :u"),
		ProjectionExpression:      aws.String("#id"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID, "#id": fieldTokenID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	}
	var keys []map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}
		for _, it := range out.Items {
			keys = append(keys, map[string]types.AttributeValue{fieldTokenID: it[fieldTokenID]})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

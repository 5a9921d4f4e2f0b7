package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/yettensyvus/InternshipFinder/internal/config"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Email uniqueness is enforced by a claim row per address in the
// user_emails table, written in the same transaction as the user.
type UserRepo struct {
	client      API
	tableName   string
	emailsTable string
	outboxTable string
}

func NewUserRepo(client API, tables config.DynamoTables) *UserRepo {
	return &UserRepo{
		client:      client,
		tableName:   tables.Users,
		emailsTable: tables.UserEmails,
		outboxTable: tables.Outbox,
	}
}

type emailClaim struct {
	Email  string `dynamodbav:"email"`
	UserID string `dynamodbav:"user_id"`
}

func (r *UserRepo) claimPut(email, userID string) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(emailClaim{Email: email, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("marshal email claim: %w", err)
	}
	return &types.Put{
		TableName:           aws.String(r.emailsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	}, nil
}

func (r *UserRepo) claimDelete(email string) *types.Delete {
	return &types.Delete{
		TableName: aws.String(r.emailsTable),
		Key:       strKey(fieldEmail, email),
	}
}

// Create writes the user and claims its email. A taken address yields
// domain.ErrEmailAlreadyRegistered.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	claim, err := r.claimPut(u.Email, u.UserID)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(user_id)"),
			}},
			{Put: claim},
		},
	})
	if codes, ok := cancellationCodes(err); ok {
		if len(codes) > 1 && conditionFailed(codes[1]) {
			return fmt.Errorf("create user: %w", domain.ErrEmailAlreadyRegistered)
		}
		return fmt.Errorf("create user: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail resolves the claim row first so the lookup is strongly
// consistent with recent email changes.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	claim, err := r.getClaim(ctx, email)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return r.Get(ctx, claim.UserID)
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	claim, err := r.getClaim(ctx, email)
	if err != nil {
		return false, err
	}
	return claim != nil, nil
}

func (r *UserRepo) getClaim(ctx context.Context, email string) (*emailClaim, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailsTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var c emailClaim
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByRole pages through the role-index GSI.
func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserRole),
		KeyConditionExpression:    aws.String("#r = :r"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldRole},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": strVal(string(role))},
	}
	var users []domain.User
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *UserRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldEnabled:   enabled,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

// Delete removes the user and its email claim and records the follow-up
// outbox events in one transaction.
func (r *UserRepo) Delete(ctx context.Context, u *domain.User, events []domain.OutboxEvent) error {
	items := []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName:           aws.String(r.tableName),
			Key:                 strKey(fieldUserID, u.UserID),
			ConditionExpression: aws.String("attribute_exists(user_id)"),
		}},
		{Delete: r.claimDelete(u.Email)},
	}
	for i := range events {
		put, err := outboxPut(r.outboxTable, &events[i])
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if codes, ok := cancellationCodes(err); ok {
		if len(codes) > 0 && conditionFailed(codes[0]) {
			return fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("delete user: %w", domain.ErrConflict)
	}
	return err
}

// mutationItems translates a credential mutation into transaction items:
// the user update and, for an email change, the claim swap.
func (r *UserRepo) mutationItems(mut *domain.UserMutation, now time.Time) ([]types.TransactWriteItem, error) {
	updates := map[string]interface{}{fieldUpdatedAt: now}
	if mut.PasswordHash != nil {
		updates[fieldPassword] = *mut.PasswordHash
	}
	if mut.Email != nil {
		updates[fieldEmail] = *mut.Email
	}
	if mut.Enabled != nil {
		updates[fieldEnabled] = *mut.Enabled
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey(fieldUserID, mut.UserID),
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       aws.String("attribute_exists(user_id)"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		}},
	}
	if mut.Email != nil && *mut.Email != mut.PreviousEmail {
		claim, err := r.claimPut(*mut.Email, mut.UserID)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{Put: claim})
		if mut.PreviousEmail != "" {
			items = append(items, types.TransactWriteItem{Delete: r.claimDelete(mut.PreviousEmail)})
		}
	}
	return items, nil
}

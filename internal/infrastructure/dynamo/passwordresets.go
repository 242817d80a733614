package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tutorlink-api/internal/domain"
)

// PasswordResetRepo is the reset-token ledger, keyed by token fingerprint.
// Expiry is never stored as state; callers evaluate ExpiresAt at read time.
type PasswordResetRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPasswordResetRepo(client *dynamodb.Client, tableName string) *PasswordResetRepo {
	return &PasswordResetRepo{client: client, tableName: tableName}
}

func (r *PasswordResetRepo) Put(ctx context.Context, p *domain.PasswordReset) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal password reset: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PasswordResetRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token_hash", tokenHash),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("reset token not found: %w", domain.ErrNotFound)
	}
	var p domain.PasswordReset
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Consume flips used from false to true. The condition guarantees a token is
// consumed at most once even when two reset calls race on it.
func (r *PasswordResetRepo) Consume(ctx context.Context, tokenHash string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("token_hash", tokenHash),
		UpdateExpression: aws.String("SET used = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ConditionExpression: aws.String("attribute_exists(token_hash) AND used = :f"),
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return fmt.Errorf("reset token already used: %w", domain.ErrBadRequest)
		}
		return err
	}
	return nil
}

package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tutorlink-api/internal/domain"
)

// RefreshTokenRepo is the session ledger. Rows are keyed by token fingerprint
// and transition active -> revoked exactly once; they are never deleted.
type RefreshTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRefreshTokenRepo(client *dynamodb.Client, tableName string) *RefreshTokenRepo {
	return &RefreshTokenRepo{client: client, tableName: tableName}
}

func (r *RefreshTokenRepo) Put(ctx context.Context, t *domain.RefreshToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token_hash", tokenHash),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("refresh token not found: %w", domain.ErrNotFound)
	}
	var t domain.RefreshToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke marks a record revoked regardless of its current state. Revoking a
// record that does not exist or is already revoked is not an error, which
// makes logout idempotent.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("token_hash", tokenHash),
		UpdateExpression: aws.String("SET revoked = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
		ConditionExpression: aws.String("attribute_exists(token_hash)"),
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return nil
		}
		return err
	}
	return nil
}

// RevokeForRotation flips an active record to revoked and links its
// successor, conditioned on the record still being active. When two refresh
// calls race on the same token, exactly one wins; the loser gets
// ErrUnauthorized from the failed condition.
func (r *RefreshTokenRepo) RevokeForRotation(ctx context.Context, tokenHash, replacedByHash string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("token_hash", tokenHash),
		UpdateExpression: aws.String("SET revoked = :t, replaced_by_hash = :h"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":h": &types.AttributeValueMemberS{Value: replacedByHash},
		},
		ConditionExpression: aws.String("attribute_exists(token_hash) AND revoked = :f"),
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return fmt.Errorf("refresh token already rotated: %w", domain.ErrUnauthorized)
		}
		return err
	}
	return nil
}

// RevokeAllForUser marks every record belonging to userID revoked,
// invalidating all outstanding sessions.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		hashAttr, ok := item["token_hash"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := r.Revoke(ctx, hashAttr.Value); err != nil {
			slog.Warn("failed to revoke refresh token during mass revoke", "user_id", userID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

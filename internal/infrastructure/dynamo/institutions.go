package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tutorlink-api/internal/domain"
)

// InstitutionRepo provides typed DynamoDB operations for the institutions table.
type InstitutionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewInstitutionRepo(client *dynamodb.Client, tableName string) *InstitutionRepo {
	return &InstitutionRepo{client: client, tableName: tableName}
}

func (r *InstitutionRepo) Put(ctx context.Context, inst *domain.Institution) error {
	item, err := attributevalue.MarshalMap(inst)
	if err != nil {
		return fmt.Errorf("marshal institution: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *InstitutionRepo) Get(ctx context.Context, institutionID string) (*domain.Institution, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("institution_id", institutionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("institution not found: %w", domain.ErrNotFound)
	}
	var inst domain.Institution
	if err := attributevalue.UnmarshalMap(out.Item, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// GetByOwner looks up the single institution owned by userID via GSI.
func (r *InstitutionRepo) GetByOwner(ctx context.Context, ownerID string) (*domain.Institution, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-index"),
		KeyConditionExpression: aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("institution not found: %w", domain.ErrNotFound)
	}
	var inst domain.Institution
	if err := attributevalue.UnmarshalMap(out.Items[0], &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *InstitutionRepo) Update(ctx context.Context, institutionID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("institution_id", institutionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *InstitutionRepo) Delete(ctx context.Context, institutionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("institution_id", institutionID),
	})
	return err
}

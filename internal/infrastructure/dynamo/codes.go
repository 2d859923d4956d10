package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
)

// CodeRepo stores outstanding verification codes keyed by code_id.
// Conditional writes carry the per-key atomicity: Put rejects an id that is
// still outstanding and Consume is a compare-and-delete, so two racing
// validations can never both observe the same record.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, code *domain.VerificationCode, staleBefore time.Time) error {
	item, err := attributevalue.MarshalMap(code)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code_id) OR issued_at < :stale"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":stale": &types.AttributeValueMemberN{Value: strconv.FormatInt(staleBefore.Unix(), 10)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("code id %d outstanding: %w", code.CodeID, domain.ErrCollision)
	}
	return err
}

func (r *CodeRepo) FindByID(ctx context.Context, codeID int) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            numKey("code_id", codeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code %d: %w", codeID, domain.ErrNotFound)
	}
	var code domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &code); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *CodeRepo) Delete(ctx context.Context, codeID int) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("code_id", codeID),
		ConditionExpression: aws.String("attribute_exists(code_id)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("verification code %d: %w", codeID, domain.ErrNotFound)
	}
	return err
}

// Consume deletes the record only while its value and issue time still match
// what the caller read. The loser of a consumption race, or a caller holding
// a swept record, gets domain.ErrNotFound.
func (r *CodeRepo) Consume(ctx context.Context, code *domain.VerificationCode) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("code_id", code.CodeID),
		ConditionExpression: aws.String("code_value = :v AND issued_at = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: code.Value},
			":t": &types.AttributeValueMemberN{Value: strconv.FormatInt(code.IssuedAt.Unix(), 10)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("verification code %d: %w", code.CodeID, domain.ErrNotFound)
	}
	return err
}

func (r *CodeRepo) List(ctx context.Context) ([]domain.VerificationCode, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.VerificationCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

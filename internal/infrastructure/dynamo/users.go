package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/id"
	"github.com/go-account-api/internal/pkg/password"
)

// UserRepo is the DynamoDB-backed identity store. It owns credential policy
// and hashing so callers never see or carry password hashes.
type UserRepo struct {
	client      *dynamodb.Client
	tableName   string
	minPwLength int
}

func NewUserRepo(client *dynamodb.Client, tableName string, minPwLength int) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, minPwLength: minPwLength}
}

func (r *UserRepo) Create(ctx context.Context, email, pw string) (*domain.User, error) {
	if reasons := password.Check(pw, r.minPwLength); reasons != nil {
		return nil, &domain.CredentialPolicyError{Reasons: reasons}
	}
	hash, err := password.Hash(pw)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CheckPassword(ctx context.Context, userID, pw string) error {
	u, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(u.PasswordHash, pw) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrUnauthorized)
	}
	return nil
}

func (r *UserRepo) ConfirmEmail(ctx context.Context, userID string) error {
	return r.update(ctx, userID, map[string]interface{}{fieldEmailConfirmed: true})
}

func (r *UserRepo) GetRoles(ctx context.Context, userID string) ([]string, error) {
	u, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Roles, nil
}

// AddRole appends a role with a conditional update so a concurrent duplicate
// grant is rejected rather than applied twice.
func (r *UserRepo) AddRole(ctx context.Context, userID, role string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		UpdateExpression:    aws.String("SET #r = list_append(if_not_exists(#r, :empty), :role)"),
		ConditionExpression: aws.String("attribute_exists(user_id) AND NOT contains(#r, :flat)"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldRoles,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":role":  &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: role}}},
			":flat":  &types.AttributeValueMemberS{Value: role},
		},
	})
	if isConditionalCheckFailed(err) {
		// Already granted; grants are additive and idempotent.
		return nil
	}
	return err
}

func (r *UserRepo) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if reasons := password.Check(newPassword, r.minPwLength); reasons != nil {
		return &domain.CredentialPolicyError{Reasons: reasons}
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return r.update(ctx, userID, map[string]interface{}{fieldPasswordHash: hash})
}

func (r *UserRepo) update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

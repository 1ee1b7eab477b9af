package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-form-dispatch/internal/domain"
)

// codeRecord is the stored shape of a verification code. The action payload
// is kept as its JSON encoding next to the discriminant.
type codeRecord struct {
	CodeID     string     `dynamodbav:"code_id"`
	Email      string     `dynamodbav:"email"`
	Code       string     `dynamodbav:"code"`
	ActionType string     `dynamodbav:"action_type"`
	ActionData string     `dynamodbav:"action_data"`
	ExpiresAt  time.Time  `dynamodbav:"expires_at"`
	UsedAt     *time.Time `dynamodbav:"used_at,omitempty"`
	CreatedAt  time.Time  `dynamodbav:"created_at"`
	TTL        int64      `dynamodbav:"ttl"` // DynamoDB TTL (Unix seconds), set past ExpiresAt
}

// VerificationRepo is the code ledger.
// PK: code_id. Rows are never deleted here; the table TTL housekeeps them.
type VerificationRepo struct {
	client    API
	tableName string
	retention time.Duration
}

func NewVerificationRepo(client API, tableName string, retention time.Duration) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName, retention: retention}
}

// Insert stores a new code. It refuses to overwrite an existing code_id.
func (r *VerificationRepo) Insert(ctx context.Context, v *domain.VerificationCode) error {
	data, err := domain.EncodeAction(v.Action)
	if err != nil {
		return err
	}
	rec := codeRecord{
		CodeID:     v.CodeID,
		Email:      v.Email,
		Code:       v.Code,
		ActionType: string(v.ActionType),
		ActionData: string(data),
		ExpiresAt:  v.ExpiresAt.UTC(),
		UsedAt:     v.UsedAt,
		CreatedAt:  v.CreatedAt.UTC(),
		TTL:        v.ExpiresAt.Add(r.retention).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code_id)"),
	})
	if err != nil {
		return fmt.Errorf("put verification code %s: %w", v.CodeID, err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, codeID string) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("code_id", codeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get verification code %s: %w", codeID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	var rec codeRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal verification code: %w", err)
	}
	action, err := domain.DecodeAction(domain.ActionType(rec.ActionType), []byte(rec.ActionData))
	if err != nil {
		return nil, fmt.Errorf("stored action of code %s: %w", codeID, err)
	}
	return &domain.VerificationCode{
		CodeID:     rec.CodeID,
		Email:      rec.Email,
		Code:       rec.Code,
		ActionType: domain.ActionType(rec.ActionType),
		Action:     action,
		ExpiresAt:  rec.ExpiresAt,
		UsedAt:     rec.UsedAt,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// MarkUsed sets used_at only if it is still unset. A lost race surfaces as
// domain.ErrAlreadyUsed.
func (r *VerificationRepo) MarkUsed(ctx context.Context, codeID string, at time.Time) error {
	usedAt, err := attributevalue.Marshal(at.UTC())
	if err != nil {
		return fmt.Errorf("marshal used_at: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("code_id", codeID),
		UpdateExpression:    aws.String("SET used_at = :now"),
		ConditionExpression: aws.String("attribute_exists(code_id) AND attribute_not_exists(used_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": usedAt,
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("verification code %s already consumed: %w", codeID, domain.ErrAlreadyUsed)
		}
		return fmt.Errorf("mark verification code %s used: %w", codeID, err)
	}
	return nil
}

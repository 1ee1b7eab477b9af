package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-form-dispatch/internal/domain"
)

// globalSettingsID is the key of the single admin settings row.
const globalSettingsID = "global"

// SettingsRepo reads the admin settings row. The core never writes it.
type SettingsRepo struct {
	client    API
	tableName string
}

func NewSettingsRepo(client API, tableName string) *SettingsRepo {
	return &SettingsRepo{client: client, tableName: tableName}
}

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("settings_id", globalSettingsID),
	})
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("settings not found: %w", domain.ErrNotFound)
	}
	var s domain.Settings
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &s, nil
}

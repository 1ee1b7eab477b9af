package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleCode() *domain.VerificationCode {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.VerificationCode{
		CodeID:     "01HX",
		Email:      "a@b.com",
		Code:       "012345",
		ActionType: domain.ActionDeletionRequest,
		Action:     domain.DeletionRequestAction{ItemID: "item-1", Reason: "duplicate"},
		ExpiresAt:  now.Add(15 * time.Minute),
		CreatedAt:  now,
	}
}

func TestVerificationRepo_InsertThenGet(t *testing.T) {
	api := &mockAPI{}
	var stored map[string]types.AttributeValue
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.TableName == "codes" && *in.ConditionExpression == "attribute_not_exists(code_id)"
	})).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil)

	repo := NewVerificationRepo(api, "codes", time.Hour)
	v := sampleCode()
	require.NoError(t, repo.Insert(context.Background(), v))

	ttl, ok := stored["ttl"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.NotEmpty(t, ttl.Value)
	_, hasUsed := stored["used_at"]
	assert.False(t, hasUsed)

	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: stored}, nil)
	got, err := repo.Get(context.Background(), "01HX")
	require.NoError(t, err)
	assert.Equal(t, "012345", got.Code)
	assert.Equal(t, domain.ActionDeletionRequest, got.ActionType)
	assert.Equal(t, domain.DeletionRequestAction{ItemID: "item-1", Reason: "duplicate"}, got.Action)
	assert.True(t, got.ExpiresAt.Equal(v.ExpiresAt))
	assert.Nil(t, got.UsedAt)
}

func TestVerificationRepo_Get_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewVerificationRepo(api, "codes", time.Hour).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerificationRepo_MarkUsed_Conditional(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.ConditionExpression == "attribute_exists(code_id) AND attribute_not_exists(used_at)"
	})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()
	api.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{}).Once()

	repo := NewVerificationRepo(api, "codes", time.Hour)
	now := time.Now()
	require.NoError(t, repo.MarkUsed(context.Background(), "01HX", now))

	err := repo.MarkUsed(context.Background(), "01HX", now)
	assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
}

func TestVerificationRepo_MarkUsed_OtherErrorPassesThrough(t *testing.T) {
	api := &mockAPI{}
	boom := errors.New("throttled")
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, boom)

	err := NewVerificationRepo(api, "codes", time.Hour).MarkUsed(context.Background(), "01HX", time.Now())
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, domain.ErrAlreadyUsed))
}

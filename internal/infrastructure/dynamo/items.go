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

const fieldLastReminderSentAt = "last_reminder_sent_at"

// ItemRepo reads long-lived items and their update history.
// items PK: item_id. item_updates PK: item_id, SK: created_at.
type ItemRepo struct {
	client       API
	itemsTable   string
	updatesTable string
}

func NewItemRepo(client API, itemsTable, updatesTable string) *ItemRepo {
	return &ItemRepo{client: client, itemsTable: itemsTable, updatesTable: updatesTable}
}

// ListReminderCandidates scans for active, approved items that carry an email
// and attaches every update timestamp to each of them.
func (r *ItemRepo) ListReminderCandidates(ctx context.Context) ([]domain.Item, error) {
	values := map[string]types.AttributeValue{
		":approved": &types.AttributeValueMemberS{Value: domain.ApprovalApproved},
		":empty":    &types.AttributeValueMemberS{Value: ""},
	}
	in := ""
	for i, s := range domain.ActiveItemStatuses {
		key := fmt.Sprintf(":s%d", i)
		values[key] = &types.AttributeValueMemberS{Value: s}
		if i > 0 {
			in += ", "
		}
		in += key
	}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.itemsTable),
		FilterExpression:          aws.String("#st IN (" + in + ") AND approval_status = :approved AND attribute_exists(email) AND email <> :empty"),
		ExpressionAttributeNames:  map[string]string{"#st": "status"},
		ExpressionAttributeValues: values,
	})
	var items []domain.Item
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan items: %w", err)
		}
		var batch []domain.Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		items = append(items, batch...)
	}
	for i := range items {
		times, err := r.updateTimes(ctx, items[i].ItemID)
		if err != nil {
			return nil, err
		}
		items[i].UpdateTimes = times
	}
	return items, nil
}

// updateTimes returns the timestamps of all updates of an item. No cap is applied.
func (r *ItemRepo) updateTimes(ctx context.Context, itemID string) ([]time.Time, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.updatesTable),
		KeyConditionExpression: aws.String("item_id = :id"),
		ProjectionExpression:   aws.String("created_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: itemID},
		},
	})
	var times []time.Time
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query updates of item %s: %w", itemID, err)
		}
		var rows []struct {
			CreatedAt time.Time `dynamodbav:"created_at"`
		}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal updates of item %s: %w", itemID, err)
		}
		for _, row := range rows {
			times = append(times, row.CreatedAt)
		}
	}
	return times, nil
}

// ListSubscriberEmails returns every non-empty email on record, duplicates included.
func (r *ItemRepo) ListSubscriberEmails(ctx context.Context) ([]string, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.itemsTable),
		ProjectionExpression: aws.String("email"),
		FilterExpression:     aws.String("attribute_exists(email) AND email <> :empty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberS{Value: ""},
		},
	})
	var emails []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber emails: %w", err)
		}
		var rows []struct {
			Email string `dynamodbav:"email"`
		}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal subscriber emails: %w", err)
		}
		for _, row := range rows {
			emails = append(emails, row.Email)
		}
	}
	return emails, nil
}

// SetLastReminderSentAt stamps a single item. The item must exist.
func (r *ItemRepo) SetLastReminderSentAt(ctx context.Context, itemID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldLastReminderSentAt: at.UTC()})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.itemsTable),
		Key:                       strKey("item_id", itemID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(item_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		return fmt.Errorf("stamp reminder on item %s: %w", itemID, err)
	}
	return nil
}

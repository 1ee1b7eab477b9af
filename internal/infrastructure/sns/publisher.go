package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-form-dispatch/internal/config"
	"github.com/go-form-dispatch/internal/domain"
)

// PublishAPI is the subset of the SNS client the publisher calls.
type PublishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ReportPublisher posts a summary of each dispatch report to an admin topic.
type ReportPublisher struct {
	client   PublishAPI
	topicARN string
}

func NewReportPublisher(cfg *config.Config) (*ReportPublisher, error) {
	if cfg.ReportTopicARN == "" {
		return nil, fmt.Errorf("REPORT_TOPIC_ARN is not set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &ReportPublisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.ReportTopicARN}, nil
}

type reportSummary struct {
	ReportID       string `json:"report_id"`
	Subject        string `json:"subject"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
	TotalAttempted int    `json:"total_attempted"`
	Batches        int    `json:"batches"`
	Cancelled      bool   `json:"cancelled"`
}

func (p *ReportPublisher) Record(ctx context.Context, r domain.DispatchReport) error {
	body, err := json.Marshal(reportSummary{
		ReportID:       r.ReportID,
		Subject:        r.Subject,
		Sent:           len(r.Sent),
		Failed:         len(r.Failed),
		TotalAttempted: r.TotalAttempted,
		Batches:        r.Batches,
		Cancelled:      r.Cancelled,
	})
	if err != nil {
		return fmt.Errorf("marshal report summary: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(fmt.Sprintf("Dispatch %s: %d sent, %d failed", r.ReportID, len(r.Sent), len(r.Failed))),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sns publish report %s: %w", r.ReportID, err)
	}
	return nil
}

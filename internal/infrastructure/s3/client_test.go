package s3infra

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPutAPI struct{ mock.Mock }

func (m *mockPutAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestReportArchive_Record(t *testing.T) {
	api := &mockPutAPI{}
	var key, body string
	api.On("PutObject", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		key = *in.Key
		b, _ := io.ReadAll(in.Body)
		body = string(b)
	}).Return(&s3.PutObjectOutput{}, nil)

	a := NewReportArchive(api, "reports-bucket")
	err := a.Record(context.Background(), domain.DispatchReport{
		ReportID:  "01J0",
		Sent:      []string{"a@b.com"},
		StartedAt: time.Date(2026, 7, 9, 23, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "reports/2026/07/09/01J0.json", key)
	assert.Contains(t, body, `"sent":["a@b.com"]`)
}

func TestReportArchive_Record_Error(t *testing.T) {
	api := &mockPutAPI{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := NewReportArchive(api, "b").Record(context.Background(), domain.DispatchReport{ReportID: "x"})
	assert.ErrorContains(t, err, "access denied")
}

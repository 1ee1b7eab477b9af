package verification

import (
	"testing"

	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDescribeAction(t *testing.T) {
	yes := true
	tests := []struct {
		name   string
		action domain.ActionPayload
		want   string
	}{
		{"submission", domain.SubmissionAction{Title: "Lost cat", Status: "current"}, `new listing "Lost cat"`},
		{"update", domain.UpdateAction{ItemID: "it1", Message: "found"}, "update to listing it1"},
		{"deletion", domain.DeletionRequestAction{ItemID: "it1", Reason: "dup"}, "request to delete listing it1"},
		{"update deletion", domain.UpdateDeletionRequestAction{ItemID: "it1", UpdateID: "u2", Reason: "spam"}, "request to delete update u2 of listing it1"},
		{"status change", domain.StatusChangeRequestAction{ItemID: "it1", NewStatus: "closed"}, `request to move listing it1 to "closed"`},
		{"preferences", domain.PreferenceChangeAction{ReceiveReminders: &yes}, "notification preference change"},
		{"missing payload", nil, "deletion_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &domain.VerificationCode{ActionType: domain.ActionDeletionRequest, Action: tt.action}
			assert.Equal(t, tt.want, describeAction(v))
		})
	}
}

func TestCodeMessage_EscapesDescription(t *testing.T) {
	v := &domain.VerificationCode{
		Email:      "a@b.co",
		Code:       "123456",
		ActionType: domain.ActionSubmission,
		Action:     domain.SubmissionAction{Title: "<b>x</b>", Status: "current"},
	}
	msg := codeMessage(v, 0)
	assert.Contains(t, msg.TextBody, "<b>x</b>")
	assert.NotContains(t, msg.HTMLBody, "<b>x</b>")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;x&lt;/b&gt;")
}

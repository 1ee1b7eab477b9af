package domain

import "time"

// VerificationCode is a single-use numeric code guarding one deferred action.
// A code is valid only while UsedAt is nil and now is before ExpiresAt.
type VerificationCode struct {
	CodeID     string        `json:"id"`
	Email      string        `json:"email"`
	Code       string        `json:"-"`
	ActionType ActionType    `json:"action_type"`
	Action     ActionPayload `json:"action_data"`
	ExpiresAt  time.Time     `json:"expires_at"`
	UsedAt     *time.Time    `json:"used_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ExpiredAt reports whether the code can no longer be consumed at now.
func (v *VerificationCode) ExpiredAt(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

func (v *VerificationCode) Used() bool { return v.UsedAt != nil }

// EmailStatus tells the caller whether the code email left the service.
type EmailStatus string

const (
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

package domain

// Settings is the admin configuration snapshot an operation runs against.
// It is read once per invocation and passed explicitly.
type Settings struct {
	DistributionPolicy     DistributionPolicy `json:"distribution_policy" dynamodbav:"distribution_policy"`
	ReminderIntervalDays   int                `json:"reminder_interval_days" dynamodbav:"reminder_interval_days"`
	VerificationCodeLength int                `json:"verification_code_length" dynamodbav:"verification_code_length"`
	NotificationEmails     []string           `json:"notification_emails" dynamodbav:"notification_emails"`
}

// Code length bounds. Lengths outside the range are clamped.
const (
	DefaultCodeLength = 6
	MinCodeLength     = 4
	MaxCodeLength     = 10
)

// CodeLength returns the configured digit count, clamped to the supported range.
func (s Settings) CodeLength() int {
	n := s.VerificationCodeLength
	switch {
	case n == 0:
		return DefaultCodeLength
	case n < MinCodeLength:
		return MinCodeLength
	case n > MaxCodeLength:
		return MaxCodeLength
	}
	return n
}

package domain

import (
	"strings"
	"time"
)

// Item statuses that keep an item in the reminder rotation.
const (
	ItemStatusCurrent = "current"
	ItemStatusOngoing = "ongoing"
	ItemStatusClosed  = "closed"
)

// Approval states of an item.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ActiveItemStatuses is the set of statuses eligible for reminders.
var ActiveItemStatuses = []string{ItemStatusCurrent, ItemStatusOngoing}

// Item is a long-lived record whose owner gets periodic reminders.
type Item struct {
	ItemID             string      `json:"id" dynamodbav:"item_id"`
	Title              string      `json:"title" dynamodbav:"title"`
	Status             string      `json:"status" dynamodbav:"status"`
	ApprovalStatus     string      `json:"approval_status" dynamodbav:"approval_status"`
	Email              *string     `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Name               *string     `json:"name,omitempty" dynamodbav:"name,omitempty"`
	CreatedAt          time.Time   `json:"created" dynamodbav:"created_at"`
	LastReminderSentAt *time.Time  `json:"last_reminder_sent_at,omitempty" dynamodbav:"last_reminder_sent_at,omitempty"`
	UpdateTimes        []time.Time `json:"-" dynamodbav:"-"`
}

// IsActive reports whether the item's status is in the active set.
func (i *Item) IsActive() bool {
	for _, s := range ActiveItemStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// HasEmail reports whether the item carries a non-blank email.
func (i *Item) HasEmail() bool {
	return i.Email != nil && strings.TrimSpace(*i.Email) != ""
}

// LastActivityAt is the later of the creation time and the newest update.
func (i *Item) LastActivityAt() time.Time {
	last := i.CreatedAt
	for _, t := range i.UpdateTimes {
		if t.After(last) {
			last = t
		}
	}
	return last
}

// ReminderAnchor is the instant the reminder interval is measured from.
func (i *Item) ReminderAnchor() time.Time {
	anchor := i.LastActivityAt()
	if i.LastReminderSentAt != nil && i.LastReminderSentAt.After(anchor) {
		anchor = *i.LastReminderSentAt
	}
	return anchor
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionType discriminates the deferred action a verification code guards.
type ActionType string

const (
	ActionSubmission            ActionType = "submission"
	ActionUpdate                ActionType = "update"
	ActionDeletionRequest       ActionType = "deletion_request"
	ActionUpdateDeletionRequest ActionType = "update_deletion_request"
	ActionStatusChangeRequest   ActionType = "status_change_request"
	ActionPreferenceChange      ActionType = "preference_change"
)

// ActionTypes lists every known action type.
var ActionTypes = []ActionType{
	ActionSubmission,
	ActionUpdate,
	ActionDeletionRequest,
	ActionUpdateDeletionRequest,
	ActionStatusChangeRequest,
	ActionPreferenceChange,
}

func (t ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActionPayload is the sealed sum type of deferred actions. Only the variants
// declared in this file implement it.
type ActionPayload interface {
	ActionType() ActionType
	isActionPayload()
}

// SubmissionAction creates a new item.
type SubmissionAction struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Status      string            `json:"status" validate:"required"`
	Name        string            `json:"name,omitempty" validate:"max=200"`
	Email       string            `json:"email,omitempty" validate:"omitempty,email"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// UpdateAction appends an update to an existing item.
type UpdateAction struct {
	ItemID  string `json:"item_id" validate:"required"`
	Message string `json:"message" validate:"required,max=5000"`
	Name    string `json:"name,omitempty" validate:"max=200"`
}

// DeletionRequestAction asks an admin to delete an item.
type DeletionRequestAction struct {
	ItemID string `json:"item_id" validate:"required"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

// UpdateDeletionRequestAction asks an admin to delete a single update of an item.
type UpdateDeletionRequestAction struct {
	ItemID   string `json:"item_id" validate:"required"`
	UpdateID string `json:"update_id" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=2000"`
}

// StatusChangeRequestAction asks an admin to move an item to another status.
type StatusChangeRequestAction struct {
	ItemID    string `json:"item_id" validate:"required"`
	NewStatus string `json:"new_status" validate:"required"`
	Reason    string `json:"reason" validate:"max=2000"`
}

// PreferenceChangeAction changes the notification preferences of an address.
type PreferenceChangeAction struct {
	ReceiveNotifications *bool `json:"receive_notifications" validate:"required_without=ReceiveReminders"`
	ReceiveReminders     *bool `json:"receive_reminders" validate:"required_without=ReceiveNotifications"`
}

func (SubmissionAction) ActionType() ActionType            { return ActionSubmission }
func (UpdateAction) ActionType() ActionType                { return ActionUpdate }
func (DeletionRequestAction) ActionType() ActionType       { return ActionDeletionRequest }
func (UpdateDeletionRequestAction) ActionType() ActionType { return ActionUpdateDeletionRequest }
func (StatusChangeRequestAction) ActionType() ActionType   { return ActionStatusChangeRequest }
func (PreferenceChangeAction) ActionType() ActionType      { return ActionPreferenceChange }

func (SubmissionAction) isActionPayload()            {}
func (UpdateAction) isActionPayload()                {}
func (DeletionRequestAction) isActionPayload()       {}
func (UpdateDeletionRequestAction) isActionPayload() {}
func (StatusChangeRequestAction) isActionPayload()   {}
func (PreferenceChangeAction) isActionPayload()      {}

// ActionVisitor has one method per variant. Adding a variant breaks every
// implementation until it is handled.
type ActionVisitor interface {
	Submission(SubmissionAction) error
	Update(UpdateAction) error
	DeletionRequest(DeletionRequestAction) error
	UpdateDeletionRequest(UpdateDeletionRequestAction) error
	StatusChangeRequest(StatusChangeRequestAction) error
	PreferenceChange(PreferenceChangeAction) error
}

// VisitAction dispatches p to the matching visitor method.
func VisitAction(p ActionPayload, v ActionVisitor) error {
	switch a := p.(type) {
	case SubmissionAction:
		return v.Submission(a)
	case UpdateAction:
		return v.Update(a)
	case DeletionRequestAction:
		return v.DeletionRequest(a)
	case UpdateDeletionRequestAction:
		return v.UpdateDeletionRequest(a)
	case StatusChangeRequestAction:
		return v.StatusChangeRequest(a)
	case PreferenceChangeAction:
		return v.PreferenceChange(a)
	default:
		return fmt.Errorf("unknown action payload %T: %w", p, ErrInvalidInput)
	}
}

// DecodeAction parses raw JSON into the variant selected by t.
func DecodeAction(t ActionType, data json.RawMessage) (ActionPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, fmt.Errorf("action data is required: %w", ErrInvalidInput)
	}
	var (
		p   ActionPayload
		err error
	)
	switch t {
	case ActionSubmission:
		p, err = decodeInto[SubmissionAction](trimmed)
	case ActionUpdate:
		p, err = decodeInto[UpdateAction](trimmed)
	case ActionDeletionRequest:
		p, err = decodeInto[DeletionRequestAction](trimmed)
	case ActionUpdateDeletionRequest:
		p, err = decodeInto[UpdateDeletionRequestAction](trimmed)
	case ActionStatusChangeRequest:
		p, err = decodeInto[StatusChangeRequestAction](trimmed)
	case ActionPreferenceChange:
		p, err = decodeInto[PreferenceChangeAction](trimmed)
	default:
		return nil, fmt.Errorf("unknown action type %q: %w", t, ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s action: %v: %w", t, err, ErrInvalidInput)
	}
	return p, nil
}

// EncodeAction marshals the payload of p without its discriminant.
func EncodeAction(p ActionPayload) (json.RawMessage, error) {
	if p == nil {
		return nil, fmt.Errorf("action payload is required: %w", ErrInvalidInput)
	}
	return json.Marshal(p)
}

func decodeInto[T ActionPayload](data []byte) (ActionPayload, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

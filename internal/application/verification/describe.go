package verification

import (
	"fmt"

	"github.com/go-form-dispatch/internal/domain"
)

// actionDescriber renders the one-line summary shown in the code email.
type actionDescriber struct{ text string }

func (d *actionDescriber) Submission(a domain.SubmissionAction) error {
	d.text = fmt.Sprintf("new listing %q", a.Title)
	return nil
}

func (d *actionDescriber) Update(a domain.UpdateAction) error {
	d.text = fmt.Sprintf("update to listing %s", a.ItemID)
	return nil
}

func (d *actionDescriber) DeletionRequest(a domain.DeletionRequestAction) error {
	d.text = fmt.Sprintf("request to delete listing %s", a.ItemID)
	return nil
}

func (d *actionDescriber) UpdateDeletionRequest(a domain.UpdateDeletionRequestAction) error {
	d.text = fmt.Sprintf("request to delete update %s of listing %s", a.UpdateID, a.ItemID)
	return nil
}

func (d *actionDescriber) StatusChangeRequest(a domain.StatusChangeRequestAction) error {
	d.text = fmt.Sprintf("request to move listing %s to %q", a.ItemID, a.NewStatus)
	return nil
}

func (d *actionDescriber) PreferenceChange(domain.PreferenceChangeAction) error {
	d.text = "notification preference change"
	return nil
}

// describeAction falls back to the action type when the payload is missing.
func describeAction(v *domain.VerificationCode) string {
	var d actionDescriber
	if v.Action == nil || domain.VisitAction(v.Action, &d) != nil {
		return string(v.ActionType)
	}
	return d.text
}

package validate

import (
	"testing"

	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)
}

func TestNormalizeEmail_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not-an-email", "a@", "@b.com"} {
		_, err := NormalizeEmail(in)
		assert.Error(t, err, in)
	}
}

func TestStruct_ReportsFailedFields(t *testing.T) {
	err := Struct(domain.UpdateAction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'ItemID' failed 'required'")
	assert.Contains(t, err.Error(), "field 'Message' failed 'required'")
}

func TestStruct_PreferenceNeedsOneFlag(t *testing.T) {
	assert.Error(t, Struct(domain.PreferenceChangeAction{}))
	yes := true
	assert.NoError(t, Struct(domain.PreferenceChangeAction{ReceiveReminders: &yes}))
}

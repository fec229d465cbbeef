package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required,min=10"`
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed"`
}

type sampleSlotRequest struct {
	Date      string `json:"date" validate:"required,dateonly"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

func TestValidatePasses(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&sampleRequest{
		Email:  "pat@clinic.test",
		Reason: "annual physical checkup",
		Status: "pending",
	})
	require.NoError(t, err)
}

func TestValidateSlotFormats(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(&sampleSlotRequest{Date: "2025-06-09", StartTime: "09:30"}))

	err := v.Validate(&sampleSlotRequest{Date: "09/06/2025", StartTime: "9am"})
	require.Error(t, err)

	formatted := v.FormatValidationErrors(err)
	require.Contains(t, formatted["Date"], "YYYY-MM-DD")
	require.Contains(t, formatted["StartTime"], "HH:MM")
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&sampleRequest{
		Email:  "not-an-email",
		Reason: "short",
		Status: "archived",
	})
	require.Error(t, err)

	formatted := v.FormatValidationErrors(err)
	require.Contains(t, formatted["Email"], "valid email")
	require.Contains(t, formatted["Reason"], "at least 10")
	require.Contains(t, formatted["Status"], "one of")
}

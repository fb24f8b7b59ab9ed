package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/validation"
)

type boundaryEdit struct {
	Start string `json:"start" validate:"required,timecode"`
	End   string `json:"end" validate:"omitempty,timecode"`
	Label string `json:"label" validate:"required,max=256"`
}

func TestValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(boundaryEdit{
		Start: "00:10:00.000",
		End:   "00:19:59.000",
		Label: "Chapter 02",
	})
	assert.NoError(t, err)
}

func TestValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		edit      boundaryEdit
		wantField string
	}{
		{
			name:      "missing start",
			edit:      boundaryEdit{Label: "Chapter 01"},
			wantField: "start",
		},
		{
			name:      "malformed start",
			edit:      boundaryEdit{Start: "ten minutes in", Label: "Chapter 01"},
			wantField: "start",
		},
		{
			name:      "malformed end",
			edit:      boundaryEdit{Start: "00:10:00.000", End: "00:99:00.000", Label: "Chapter 01"},
			wantField: "end",
		},
		{
			name:      "missing label",
			edit:      boundaryEdit{Start: "00:10:00.000"},
			wantField: "label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.edit)
			require.Error(t, err)

			var domainErr *errors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, errors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(boundaryEdit{Start: "00:10:00.000", End: "", Label: ""})
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "label")
	assert.NotContains(t, details, "Label")
}

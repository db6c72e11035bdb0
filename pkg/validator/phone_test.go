package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := NewPhoneValidator()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain number", input: "9876543210", want: "9876543210"},
		{name: "with spaces", input: "98765 43210", want: "9876543210"},
		{name: "with dashes", input: "98765-43210", want: "9876543210"},
		{name: "with country code", input: "+919876543210", want: "9876543210"},
		{name: "country code no plus", input: "919876543210", want: "9876543210"},
		{name: "leading zero", input: "09876543210", want: "9876543210"},
		{name: "empty", input: "", wantErr: ErrEmptyPhone},
		{name: "letters", input: "98765abcde", wantErr: ErrInvalidFormat},
		{name: "too short", input: "987654", wantErr: ErrInvalidLength},
		{name: "too long", input: "98765432101", wantErr: ErrInvalidLength},
		{name: "landline prefix", input: "1234567890", wantErr: ErrInvalidPrefix},
		{name: "starts with five", input: "5876543210", wantErr: ErrInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize(t *testing.T) {
	v := NewPhoneValidator()

	assert.Equal(t, "9876543210", v.Sanitize("+91 98765 43210"))
	assert.Equal(t, "9876543210", v.Sanitize("(98765) 43210"))
	assert.Equal(t, "9876543210", v.Sanitize("098-765-43210"))
}

func TestFormat(t *testing.T) {
	v := NewPhoneValidator()

	formatted, err := v.Format("919876543210")
	assert.NoError(t, err)
	assert.Equal(t, "98765 43210", formatted)

	_, err = v.Format("12345")
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	v := NewPhoneValidator()

	assert.True(t, v.IsValid("9876543210"))
	assert.True(t, v.IsValid("+91 98765 43210"))
	assert.False(t, v.IsValid(""))
	assert.False(t, v.IsValid("1234567890"))
}

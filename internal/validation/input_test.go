package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

func TestValidateFeedback_OK(t *testing.T) {
	assert.NoError(t, ValidateFeedback("Ana", "ana@x.com", "Great game", 5))
	assert.NoError(t, ValidateFeedback("  Ana ", " ana@x.com ", " ok ", 1))
}

func TestValidateFeedback_RequiredFields(t *testing.T) {
	cases := []struct {
		name, email, message string
		want                 string
	}{
		{"", "ana@x.com", "hi", "Name is required"},
		{"Ana", "   ", "hi", "Email is required"},
		{"Ana", "ana@x.com", "\t", "Message is required"},
	}
	for _, tc := range cases {
		err := ValidateFeedback(tc.name, tc.email, tc.message, 5)
		assert.True(t, apperror.IsValidation(err))
		assert.Equal(t, tc.want, apperror.MessageOf(err))
	}
}

func TestValidateFeedback_RatingOutOfRange(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		err := ValidateFeedback("Ana", "ana@x.com", "hi", rating)
		assert.True(t, apperror.IsValidation(err), "rating %d", rating)
		assert.Contains(t, apperror.MessageOf(err), "between 1 and 5")
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@b.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("a@"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@b.com"))
}

func TestValidateLength(t *testing.T) {
	assert.Error(t, ValidateLength("Name", strings.Repeat("я", MaxNameLength+1), 0, MaxNameLength))
	assert.NoError(t, ValidateLength("Name", strings.Repeat("я", MaxNameLength), 0, MaxNameLength))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@x.com", NormalizeEmail("  Ana@X.com "))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "123456", DigitsOnly("12-34 56", 6))
	assert.Equal(t, "123456", DigitsOnly("1234567", 6))
	assert.Equal(t, "", DigitsOnly("abc", 6))
	assert.Equal(t, "12", DigitsOnly("1a2", 0))
}

func TestIsOTPCode(t *testing.T) {
	assert.True(t, IsOTPCode("042137"))
	assert.False(t, IsOTPCode("12345"))
	assert.False(t, IsOTPCode("12345a"))
	assert.False(t, IsOTPCode("1234567"))
}

package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxMessageLength = 5000
)

var validate = validator.New()

// NormalizeEmail приводит email к виду, в котором он хранится в otp_challenges.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation(fmt.Sprintf("%s must be at least %d characters", fieldName, min))
	}
	if max > 0 && length > max {
		return apperror.Validation(fmt.Sprintf("%s must be at most %d characters", fieldName, max))
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(fieldName + " is required")
	}
	return nil
}

// ValidateEmail проверяет синтаксис email.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.Validation("Email is required")
	}
	if len(email) > MaxEmailLength {
		return apperror.Validation("Invalid email format")
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperror.Validation("Invalid email format")
	}
	return nil
}

// ValidateRating проверяет, что рейтинг в диапазоне [1, 5].
func ValidateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return apperror.Validation(fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	return nil
}

// ValidateFeedback проверяет форму отзыва целиком и возвращает первую ошибку.
func ValidateFeedback(name, email, message string, rating int) error {
	if err := ValidateNonEmpty("Name", name); err != nil {
		return err
	}
	if err := ValidateNonEmpty("Email", email); err != nil {
		return err
	}
	if err := ValidateNonEmpty("Message", message); err != nil {
		return err
	}
	if err := ValidateLength("Name", strings.TrimSpace(name), 0, MaxNameLength); err != nil {
		return err
	}
	if err := ValidateLength("Message", strings.TrimSpace(message), 0, MaxMessageLength); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidateRating(rating)
}

// DigitsOnly убирает из ввода всё, кроме цифр, и обрезает до max символов.
func DigitsOnly(input string, max int) string {
	var b strings.Builder
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		if max > 0 && b.Len() >= max {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsOTPCode сообщает, состоит ли код ровно из шести цифр.
func IsOTPCode(code string) bool {
	return len(code) == models.OTPCodeLength && DigitsOnly(code, 0) == code
}

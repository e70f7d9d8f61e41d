package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidCode         ErrorCode = "INVALID_CODE"
	ErrCodeExpired             ErrorCode = "EXPIRED"
	ErrCodeStorageUnavailable  ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeDuplicateSubmission ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeResendCooldown      ErrorCode = "RESEND_COOLDOWN"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// AppError - ошибка, которую можно показать пользователю.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с конкретным сообщением для поля.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// StorageUnavailable оборачивает ошибку хранилища или почтового сервиса.
func StorageUnavailable(err error, message string) *AppError {
	if message == "" {
		message = "Service temporarily unavailable, please try again later"
	}
	return Wrap(err, ErrCodeStorageUnavailable, message)
}

// Internal оборачивает неожиданную ошибку. Причина пользователю не показывается.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternal, "Internal server error")
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidCode:
		return http.StatusBadRequest
	case ErrCodeExpired:
		return http.StatusGone
	case ErrCodeConflict, ErrCodeDuplicateSubmission:
		return http.StatusConflict
	case ErrCodeResendCooldown:
		return http.StatusTooManyRequests
	case ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или ErrCodeInternal для посторонних ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// MessageOf возвращает сообщение для пользователя.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

func IsInvalidCode(err error) bool {
	return Is(err, ErrCodeInvalidCode)
}

func IsExpired(err error) bool {
	return Is(err, ErrCodeExpired)
}

func IsStorageUnavailable(err error) bool {
	return Is(err, ErrCodeStorageUnavailable)
}

var (
	ErrInvalidCode          = New(ErrCodeInvalidCode, "Invalid OTP code")
	ErrExpired              = New(ErrCodeExpired, "OTP has expired. Please request a new one.")
	ErrResendCooldown       = New(ErrCodeResendCooldown, "Please wait before requesting a new code")
	ErrVerificationRequired = New(ErrCodeUnauthorized, "Email verification is required before submitting feedback")
	ErrVerificationUsed     = New(ErrCodeDuplicateSubmission, "This verification has already been used")
	ErrEmailMismatch        = New(ErrCodeUnauthorized, "Email does not match the verified address")
)

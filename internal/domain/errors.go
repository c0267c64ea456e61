package domain

import (
	"errors"
	"fmt"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Cause   error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// CodeOf returns the AppError code carried by err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Error codes shared by handlers, services and tests.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeExpired            = "EXPIRED"
	CodeDependency         = "DEPENDENCY_FAILURE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeAlreadyVerified    = "ALREADY_VERIFIED"
	CodeNoPendingCode      = "NO_PENDING_CODE"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeOTPMismatch        = "OTP_MISMATCH"
	CodeInvalidDecision    = "INVALID_DECISION"
	CodeNotAnOwner         = "NOT_AN_OWNER"
	CodeAlreadyDecided     = "ALREADY_DECIDED"
	CodePendingApproval    = "PENDING_APPROVAL"
	CodeAccountRejected    = "ACCOUNT_REJECTED"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeAccountBlocked     = "ACCOUNT_BLOCKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeRateLimited        = "RATE_LIMITED"
)

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

// ErrValidationFields reports one message per offending input field.
func ErrValidationFields(fields map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: "validation failed", Fields: fields, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Status: 403}
}

func ErrExpired(msg string) *AppError {
	return &AppError{Code: CodeExpired, Message: msg, Status: 410}
}

func ErrDependency(msg string, cause error) *AppError {
	return &AppError{Code: CodeDependency, Message: msg, Status: 502, Cause: cause}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: CodeAccountLocked, Message: msg, Status: 429}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}

// Verification errors.

func ErrAlreadyVerified() *AppError {
	return &AppError{Code: CodeAlreadyVerified, Message: "email is already verified", Status: 409}
}

func ErrNoPendingCode() *AppError {
	return &AppError{Code: CodeNoPendingCode, Message: "no pending verification code, request a new one", Status: 400}
}

func ErrOTPExpired() *AppError {
	return &AppError{Code: CodeOTPExpired, Message: "verification code has expired, request a new one", Status: 410}
}

func ErrOTPMismatch() *AppError {
	return &AppError{Code: CodeOTPMismatch, Message: "invalid verification code", Status: 400}
}

// Approval errors.

func ErrInvalidDecision(decision string) *AppError {
	return &AppError{Code: CodeInvalidDecision, Message: fmt.Sprintf("decision must be approved or rejected, got %q", decision), Status: 400}
}

func ErrNotAnOwner() *AppError {
	return &AppError{Code: CodeNotAnOwner, Message: "account is not an owner", Status: 400}
}

func ErrAlreadyDecided(status ApprovalStatus) *AppError {
	return &AppError{Code: CodeAlreadyDecided, Message: fmt.Sprintf("owner account already %s", status), Status: 409}
}

// Login gate errors.

func ErrPendingApproval() *AppError {
	return &AppError{Code: CodePendingApproval, Message: "your account is pending admin approval", Status: 403}
}

func ErrAccountRejected() *AppError {
	return &AppError{Code: CodeAccountRejected, Message: "your account has been rejected by the admin", Status: 403}
}

func ErrAccountInactive() *AppError {
	return &AppError{Code: CodeAccountInactive, Message: "account is deactivated", Status: 403}
}

func ErrAccountBlocked() *AppError {
	return &AppError{Code: CodeAccountBlocked, Message: "account is blocked", Status: 403}
}

func ErrInvalidCredentials() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "invalid email or password", Status: 401}
}

func ErrInvalidToken(cause error) *AppError {
	return &AppError{Code: CodeInvalidToken, Message: "invalid identity token", Status: 401, Cause: cause}
}

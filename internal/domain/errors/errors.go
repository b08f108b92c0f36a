package errors

import (
	"net/http"

	"clinicore/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// State token errors. All three are presented to the caller the same
	// way (restart the login flow); the distinct codes matter for logs.
	ErrStateNotFound = NewBaseError(
		http.StatusUnauthorized,
		"STATE_NOT_FOUND",
		"登入流程無效,請重新登入",
		"",
	)

	ErrStateAlreadyUsed = NewBaseError(
		http.StatusUnauthorized,
		"STATE_ALREADY_USED",
		"登入流程已被使用,請重新登入",
		"",
	)

	ErrStateExpired = NewBaseError(
		http.StatusUnauthorized,
		"STATE_EXPIRED",
		"登入流程已逾時,請重新登入",
		"",
	)

	// ID token hard failures. Any of these on a callback means the token
	// did not come from the expected provider for this client: treated as
	// possible tampering, never retried.
	ErrMalformedToken = NewBaseError(
		http.StatusUnauthorized,
		"MALFORMED_TOKEN",
		"無效的 ID 權杖",
		"",
	)

	ErrInvalidSignature = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_SIGNATURE",
		"ID 權杖簽章驗證失敗",
		"",
	)

	ErrIssuerMismatch = NewBaseError(
		http.StatusUnauthorized,
		"ISSUER_MISMATCH",
		"ID 權杖簽發者不符",
		"",
	)

	ErrAudienceMismatch = NewBaseError(
		http.StatusUnauthorized,
		"AUDIENCE_MISMATCH",
		"ID 權杖接收者不符",
		"",
	)

	ErrNonceMismatch = NewBaseError(
		http.StatusUnauthorized,
		"NONCE_MISMATCH",
		"ID 權杖 nonce 不符",
		"",
	)

	ErrSigningKeyNotFound = NewBaseError(
		http.StatusUnauthorized,
		"SIGNING_KEY_NOT_FOUND",
		"找不到對應的簽章金鑰",
		"",
	)

	// ErrLoginExpired is the soft counterpart of the set above: the token
	// was genuine but its lifetime elapsed. Safe to retry by logging in again.
	ErrLoginExpired = NewBaseError(
		http.StatusUnauthorized,
		"LOGIN_EXPIRED",
		"登入已逾時,請重新登入",
		"",
	)

	// OAuth flow errors
	ErrOAuthFailed = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_FAILED",
		"OAuth 認證失敗",
		"",
	)

	ErrOAuthCodeInvalid = NewBaseError(
		http.StatusBadRequest,
		"OAUTH_CODE_INVALID",
		"無效的授權碼",
		"",
	)

	// Identity-related errors
	ErrIdentityNotFound = NewBaseError(
		http.StatusNotFound,
		"IDENTITY_NOT_FOUND",
		"找不到該使用者",
		"",
	)

	ErrIdentityAlreadyExists = NewBaseError(
		http.StatusConflict,
		"IDENTITY_ALREADY_EXISTS",
		"此電子郵件已被註冊",
		"",
	)

	ErrPatientProfileNotFound = NewBaseError(
		http.StatusNotFound,
		"PATIENT_PROFILE_NOT_FOUND",
		"找不到該病患資料",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"電子郵件或密碼錯誤",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"密碼處理錯誤",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"資料庫交易失敗",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"存取被拒絕",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"找不到該資源",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"資源衝突",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "資料庫執行失敗"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

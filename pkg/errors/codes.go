package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Supplier Module Error Codes
const (
	ErrCodeSupplierNotFound      ErrorCode = "SUP_001"
	ErrCodeSupplierIDInvalid     ErrorCode = "SUP_002"
	ErrCodeSupplierAlreadyExists ErrorCode = "SUP_003"
)

// Evaluation Module Error Codes
const (
	ErrCodeEvaluationNotFound     ErrorCode = "EVAL_001"
	ErrCodeEvaluationInProgress   ErrorCode = "EVAL_002"
	ErrCodeScoringFailed          ErrorCode = "EVAL_003"
	ErrCodeAnalysisLogWriteFailed ErrorCode = "EVAL_004"
	ErrCodeSearchFailed           ErrorCode = "EVAL_005"
)

// Recommendation Module Error Codes
const (
	ErrCodeRecommendationNotFound      ErrorCode = "REC_001"
	ErrCodeRecommendationTypeInvalid   ErrorCode = "REC_002"
	ErrCodeRecommendationNotReviewable ErrorCode = "REC_003"
)

// Registry / Data Source Error Codes
const (
	ErrCodeRegistryUnavailable ErrorCode = "SRC_001"
	ErrCodeRegistryRateLimited ErrorCode = "SRC_002"
	ErrCodeRegistryAuthFailed  ErrorCode = "SRC_003"
	ErrCodeRegistryParseError  ErrorCode = "SRC_004"
)

// Remote Evaluation Service Error Codes
const (
	ErrCodeRemoteUnavailable   ErrorCode = "RMT_001"
	ErrCodeRemoteRejected      ErrorCode = "RMT_002"
	ErrCodeRemoteInvalidAnswer ErrorCode = "RMT_003"
)

// Aliases used pervasively at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeSupplierNotFound:      http.StatusNotFound,
	ErrCodeSupplierIDInvalid:     http.StatusBadRequest,
	ErrCodeSupplierAlreadyExists: http.StatusConflict,

	ErrCodeEvaluationNotFound:     http.StatusNotFound,
	ErrCodeEvaluationInProgress:   http.StatusConflict,
	ErrCodeScoringFailed:          http.StatusInternalServerError,
	ErrCodeAnalysisLogWriteFailed: http.StatusInternalServerError,
	ErrCodeSearchFailed:           http.StatusInternalServerError,

	ErrCodeRecommendationNotFound:      http.StatusNotFound,
	ErrCodeRecommendationTypeInvalid:   http.StatusBadRequest,
	ErrCodeRecommendationNotReviewable: http.StatusConflict,

	ErrCodeRegistryUnavailable: http.StatusServiceUnavailable,
	ErrCodeRegistryRateLimited: http.StatusTooManyRequests,
	ErrCodeRegistryAuthFailed:  http.StatusBadGateway,
	ErrCodeRegistryParseError:  http.StatusBadGateway,

	ErrCodeRemoteUnavailable:   http.StatusServiceUnavailable,
	ErrCodeRemoteRejected:      http.StatusBadGateway,
	ErrCodeRemoteInvalidAnswer: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeSupplierNotFound:      "supplier not found",
	ErrCodeSupplierIDInvalid:     "invalid supplier identifier",
	ErrCodeSupplierAlreadyExists: "supplier already exists",

	ErrCodeEvaluationNotFound:     "evaluation not found",
	ErrCodeEvaluationInProgress:   "an analysis is already in progress for this supplier",
	ErrCodeScoringFailed:          "score computation failed",
	ErrCodeAnalysisLogWriteFailed: "failed to append analysis log entry",
	ErrCodeSearchFailed:           "supplier search failed",

	ErrCodeRecommendationNotFound:      "recommendation not found",
	ErrCodeRecommendationTypeInvalid:   "invalid recommendation type",
	ErrCodeRecommendationNotReviewable: "recommendation is not in a reviewable state",

	ErrCodeRegistryUnavailable: "registry source unavailable",
	ErrCodeRegistryRateLimited: "registry source rate limited",
	ErrCodeRegistryAuthFailed:  "registry source authentication failed",
	ErrCodeRegistryParseError:  "failed to parse registry response",

	ErrCodeRemoteUnavailable:   "remote evaluation service unavailable",
	ErrCodeRemoteRejected:      "remote evaluation service rejected the request",
	ErrCodeRemoteInvalidAnswer: "remote evaluation service returned an invalid response",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeUnknown            ErrorCode = "COMMON_000"

	CodeOK ErrorCode = "OK"
)

// Annotation (range model) error codes.
const (
	ErrCodeAnnotationInvalidRange ErrorCode = "ANN_001"
	ErrCodeAnnotationNotFound     ErrorCode = "ANN_002"
	ErrCodeAnnotationInvalidKind  ErrorCode = "ANN_003"
	ErrCodeAnnotationInvalidColor ErrorCode = "ANN_004"
)

// Document session error codes.
const (
	ErrCodeDocumentNotFound  ErrorCode = "DOC_001"
	ErrCodeDocumentEmptyText ErrorCode = "DOC_002"
	ErrCodeNoSelection       ErrorCode = "DOC_003"
)

// Source adapter error codes.  Adapter failures are logged and treated as
// empty candidate lists; they never abort a generation pass.
const (
	ErrCodeAdapterFailed   ErrorCode = "ADP_001"
	ErrCodeAdapterNotWorth ErrorCode = "ADP_002"
)

// Remote analysis service error codes.
const (
	ErrCodeRemoteStatus      ErrorCode = "RMT_001"
	ErrCodeRemoteMalformed   ErrorCode = "RMT_002"
	ErrCodeRemoteUnavailable ErrorCode = "RMT_003"
)

// Pipeline error codes.
const (
	ErrCodePipelineStale  ErrorCode = "PIP_001"
	ErrCodePipelinePolicy ErrorCode = "PIP_002"
)

// Persistence error codes.
const (
	ErrCodeStoreUnavailable   ErrorCode = "PST_001"
	ErrCodeStoreSerialization ErrorCode = "PST_002"
)

// Export error codes.
const (
	ErrCodeExportRenderFailed      ErrorCode = "EXP_001"
	ErrCodeExportFormatUnsupported ErrorCode = "EXP_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,

	ErrCodeAnnotationInvalidRange: http.StatusBadRequest,
	ErrCodeAnnotationNotFound:     http.StatusNotFound,
	ErrCodeAnnotationInvalidKind:  http.StatusBadRequest,
	ErrCodeAnnotationInvalidColor: http.StatusBadRequest,

	ErrCodeDocumentNotFound:  http.StatusNotFound,
	ErrCodeDocumentEmptyText: http.StatusBadRequest,
	ErrCodeNoSelection:       http.StatusConflict,

	ErrCodeAdapterFailed:   http.StatusInternalServerError,
	ErrCodeAdapterNotWorth: http.StatusUnprocessableEntity,

	ErrCodeRemoteStatus:      http.StatusBadGateway,
	ErrCodeRemoteMalformed:   http.StatusBadGateway,
	ErrCodeRemoteUnavailable: http.StatusBadGateway,

	ErrCodePipelineStale:  http.StatusConflict,
	ErrCodePipelinePolicy: http.StatusBadRequest,

	ErrCodeStoreUnavailable:   http.StatusInternalServerError,
	ErrCodeStoreSerialization: http.StatusInternalServerError,

	ErrCodeExportRenderFailed:      http.StatusInternalServerError,
	ErrCodeExportFormatUnsupported: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",

	ErrCodeAnnotationInvalidRange: "annotation range out of bounds",
	ErrCodeAnnotationNotFound:     "annotation not found",
	ErrCodeAnnotationInvalidKind:  "unknown annotation kind",
	ErrCodeAnnotationInvalidColor: "unknown highlight color",

	ErrCodeDocumentNotFound:  "document not found",
	ErrCodeDocumentEmptyText: "document text is empty",
	ErrCodeNoSelection:       "no committed selection",

	ErrCodeAdapterFailed:   "source adapter failed",
	ErrCodeAdapterNotWorth: "text not fact-check worthy",

	ErrCodeRemoteStatus:      "analysis service returned an error status",
	ErrCodeRemoteMalformed:   "analysis service returned malformed JSON",
	ErrCodeRemoteUnavailable: "analysis service unreachable",

	ErrCodePipelineStale:  "generation result superseded by a newer edit",
	ErrCodePipelinePolicy: "unknown gating policy",

	ErrCodeStoreUnavailable:   "annotation store unavailable",
	ErrCodeStoreSerialization: "annotation store serialization failed",

	ErrCodeExportRenderFailed:      "export rendering failed",
	ErrCodeExportFormatUnsupported: "unsupported export format",
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

// IsClientError reports whether the ErrorCode maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the ErrorCode maps to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

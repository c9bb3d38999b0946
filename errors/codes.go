package errors

// ErrorCode identifies the class of an AppError in API responses.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1005

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Session input
	ErrorCode_SESSION_NOT_FOUND   ErrorCode = 3000
	ErrorCode_SESSION_BUSY        ErrorCode = 3001
	ErrorCode_FILE_REQUIRED       ErrorCode = 3002
	ErrorCode_TRANSCRIPT_REQUIRED ErrorCode = 3003
	ErrorCode_EMPTY_MESSAGE       ErrorCode = 3004
	ErrorCode_UNKNOWN_SPEAKER     ErrorCode = 3005
	ErrorCode_UNKNOWN_SECTION     ErrorCode = 3006

	// Resources
	ErrorCode_FILE_UNREADABLE         ErrorCode = 4000
	ErrorCode_FILE_TOO_LARGE          ErrorCode = 4001
	ErrorCode_MEDIA_SIGNATURE_INVALID ErrorCode = 4002

	// AI collaborators
	ErrorCode_AI_TRANSCRIPTION_FAILED  ErrorCode = 5000
	ErrorCode_AI_NAME_INFERENCE_FAILED ErrorCode = 5001
	ErrorCode_AI_SUMMARY_FAILED        ErrorCode = 5002
	ErrorCode_AI_CHAT_FAILED           ErrorCode = 5003
	ErrorCode_AI_SERVICE_UNAVAILABLE   ErrorCode = 5004
	ErrorCode_AI_QUOTA_EXCEEDED        ErrorCode = 5005
	ErrorCode_AI_INVALID_API_KEY       ErrorCode = 5006
	ErrorCode_AI_MALFORMED_RESPONSE    ErrorCode = 5007

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 6000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 6001
	ErrorCode_DB_QUERY_FAILED            ErrorCode = 6002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_SESSION_NOT_FOUND:          "SESSION_NOT_FOUND",
	ErrorCode_SESSION_BUSY:               "SESSION_BUSY",
	ErrorCode_FILE_REQUIRED:              "FILE_REQUIRED",
	ErrorCode_TRANSCRIPT_REQUIRED:        "TRANSCRIPT_REQUIRED",
	ErrorCode_EMPTY_MESSAGE:              "EMPTY_MESSAGE",
	ErrorCode_UNKNOWN_SPEAKER:            "UNKNOWN_SPEAKER",
	ErrorCode_UNKNOWN_SECTION:            "UNKNOWN_SECTION",
	ErrorCode_FILE_UNREADABLE:            "FILE_UNREADABLE",
	ErrorCode_FILE_TOO_LARGE:             "FILE_TOO_LARGE",
	ErrorCode_MEDIA_SIGNATURE_INVALID:    "MEDIA_SIGNATURE_INVALID",
	ErrorCode_AI_TRANSCRIPTION_FAILED:    "AI_TRANSCRIPTION_FAILED",
	ErrorCode_AI_NAME_INFERENCE_FAILED:   "AI_NAME_INFERENCE_FAILED",
	ErrorCode_AI_SUMMARY_FAILED:          "AI_SUMMARY_FAILED",
	ErrorCode_AI_CHAT_FAILED:             "AI_CHAT_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:     "AI_SERVICE_UNAVAILABLE",
	ErrorCode_AI_QUOTA_EXCEEDED:          "AI_QUOTA_EXCEEDED",
	ErrorCode_AI_INVALID_API_KEY:         "AI_INVALID_API_KEY",
	ErrorCode_AI_MALFORMED_RESPONSE:      "AI_MALFORMED_RESPONSE",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Kind groups error codes by how the session reacts to them.
type Kind string

const (
	KindInput        Kind = "input"
	KindCollaborator Kind = "collaborator"
	KindResource     Kind = "resource"
	KindInternal     Kind = "internal"
)

// Kind classifies the code.
func (c ErrorCode) Kind() Kind {
	switch {
	case c == ErrorCode_INVALID_ARGUMENT, c == ErrorCode_INVALID_PAYLOAD, c >= 3000 && c < 4000:
		return KindInput
	case c >= 4000 && c < 5000:
		return KindResource
	case c >= 5000 && c < 6000:
		return KindCollaborator
	default:
		return KindInternal
	}
}

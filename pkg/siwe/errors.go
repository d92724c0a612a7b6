package siwe

// ErrorKind classifies how a field failed validation.
type ErrorKind string

const (
	KindInvalidType    ErrorKind = "invalid_type"
	KindInvalidLiteral ErrorKind = "invalid_literal"
	KindInvalidString  ErrorKind = "invalid_string"
	KindInvalidEnum    ErrorKind = "invalid_enum_value"
	KindTooSmall       ErrorKind = "too_small"
	KindCustom         ErrorKind = "custom"
)

// FieldError reports a single validation failure. Path points at the failing
// field; indexed elements use dotted paths ("resources.2").
type FieldError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e FieldError) Error() string {
	return "siwe: " + e.Path + ": " + e.Message
}

// Stable messages for the errors callers are expected to match on.
const (
	msgRequired         = "Required"
	msgInvalidDomain    = "Invalid domain"
	msgInvalidAddress   = "Invalid checksummed address"
	msgStatementNewline = "Must not include newlines"
	msgInvalidURL       = "Invalid url"
	msgInvalidVersion   = `Invalid literal value, expected "1"`
	msgChainIDNaN       = "Expected number, received nan"
	msgNonceNotAlnum    = "Invalid"
	msgNonceTooSmall    = "String must contain at least 8 character(s)"
	msgInvalidDatetime  = "Invalid datetime"
	msgInvalidScheme    = `Invalid enum value. Expected "http" | "https"`
	msgExpBeforeIssued  = "Expiration time must be after the issued time"
	msgExpNotInFuture   = "Expiration time must be in the future"
)

package models

import "fmt"

// Error codes returned in the ok:false envelope.
const (
	CodeValidationError    = "validation_error"
	CodeCorpusUnavailable  = "corpus_unavailable"
	CodeServiceUnavailable = "service_unavailable"
)

// ErrorResponse is the ok:false envelope shared by all endpoints. The code
// lets callers distinguish "rephrase your query" from "retry later".
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// NewErrorResponse builds an ok:false envelope with the given code.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{OK: false, Code: code, Message: message}
}

// ValidationError reports a malformed request parameter. It is rejected
// before any collaborator call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Envelope converts the validation error into the wire envelope.
func (e *ValidationError) Envelope() ErrorResponse {
	return ErrorResponse{
		OK:      false,
		Code:    CodeValidationError,
		Message: e.Message,
		Field:   e.Field,
	}
}

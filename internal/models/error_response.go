package models

// Error codes returned by the attendance API.
const (
	ErrCodeEventNotFound = "event_not_found"
	ErrCodeNotMember     = "not_member"
	ErrCodeValidation    = "validation_error"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeInternal      = "internal_error"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

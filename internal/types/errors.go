// Package types holds payloads shared by the API surfaces.
package types

import (
	"fmt"
	"net/http"
)

// Error codes are "<AREA>_<HTTP status>", e.g. GAME_409.
const (
	AreaAuth    = "AUTH"
	AreaGame    = "GAME"
	AreaRound   = "ROUND"
	AreaResults = "RESULTS"
	AreaTable   = "TABLE"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorCode builds the code for area and an HTTP status.
func ErrorCode(area string, status int) string {
	return fmt.Sprintf("%s_%d", area, status)
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// NewStatusError is NewErrorResponse with the code derived from status. An
// empty message falls back to the status text.
func NewStatusError(area string, status int, message string, details any) ErrorResponse {
	if message == "" {
		message = http.StatusText(status)
	}
	return NewErrorResponse(ErrorCode(area, status), message, details)
}

package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the structured error payload returned by the dashboard.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Predefined dashboard errors.
var (
	ErrNotFound  = NewAPIError(http.StatusNotFound, "NOT_FOUND", "Run report not found")
	ErrNoReports = NewAPIError(http.StatusNotFound, "NO_REPORTS", "No quality reports have been generated yet")
)

// APIErrorFrom converts a pipeline error into a dashboard response,
// mapping the pipeline code onto an HTTP status.
func APIErrorFrom(err error) *APIError {
	switch CodeOf(err) {
	case CodeConfig, CodeRuleSet:
		return &APIError{
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  string(CodeOf(err)),
			Message:    err.Error(),
		}
	default:
		return &APIError{
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  string(CodeOf(err)),
			Message:    err.Error(),
		}
	}
}

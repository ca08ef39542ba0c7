package errors

const (
	HttpInternalError             = "internal_error"
	HttpInvalidJsonError          = "invalid_json"
	HttpNotFoundError             = "not_found"
	HttpAlreadyExistsError        = "already_exists"
	HttpInvalidReferenceError     = "invalid_reference"
	HttpDuplicateError            = "duplicate"
	HttpConflictError             = "conflict"
	HttpConcurrencyExhaustedError = "concurrency_exhausted"
)

// ErrorResponse is the error response body of every API.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

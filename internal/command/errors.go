package command

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/project-ledger/internal/core/errors"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/gin-gonic/gin"
)

// commandError carries the structured HTTP error shape from a helper back to the handler.
type commandError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *commandError) Error() string {
	return e.message
}

// mapError translates engine and handler errors to their HTTP form.
func mapError(err error) *commandError {
	var dupErr *eventsource.DuplicateError
	var conflictErr *eventsource.ConflictError

	if refs := missingReferences(err); len(refs) > 0 {
		return &commandError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidReferenceError,
			message:    err.Error(),
			details:    gin.H{"missing": refs},
		}
	}

	switch {
	case errors.As(err, &dupErr):
		return &commandError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateError,
			message:    dupErr.Error(),
			details:    gin.H{"kind": dupErr.Kind, "key": dupErr.Key},
		}
	case errors.As(err, &conflictErr):
		return &commandError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpConflictError,
			message:    conflictErr.Error(),
		}
	case errors.Is(err, eventsource.ErrNotFound):
		return &commandError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    err.Error(),
		}
	case errors.Is(err, eventsource.ErrAlreadyExists):
		return &commandError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpAlreadyExistsError,
			message:    err.Error(),
		}
	case errors.Is(err, eventsource.ErrConcurrencyExhausted):
		slog.Warn("[Command] Concurrency retries exhausted", "error", err)
		return &commandError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpConcurrencyExhaustedError,
			message:    "Too many concurrent writers, retry later",
		}
	}

	slog.Error("[Command] Command failed", "error", err)
	return &commandError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    "Failed to execute command",
	}
}

// missingReferences collects every ReferenceError in err, following joined errors.
func missingReferences(err error) []gin.H {
	var refs []gin.H
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *eventsource.ReferenceError:
			refs = append(refs, gin.H{"kind": x.Kind, "id": x.ID})
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return refs
}

// writeError serializes a commandError as the JSON HTTP response.
func writeError(c *gin.Context, err *commandError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}

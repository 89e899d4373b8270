package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faqstudio/backend/internal/domain/catalog"
	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromAppError maps a catalog error code to an HTTP status, falling back to
// a 500 with the given code when the error carries no known code.
func fromAppError(err error, fallbackCode string) *HTTPError {
	if err == nil {
		return nil
	}
	code := apperrors.Code(err)
	switch code {
	case catalog.CodeInvalidInput:
		return NewHTTPError(http.StatusBadRequest, code, errMessage(err), err)
	case catalog.CodeNotFound:
		return NewHTTPError(http.StatusNotFound, code, errMessage(err), err)
	case catalog.CodeEmbeddingUnavailable:
		return NewHTTPError(http.StatusBadGateway, code, errMessage(err), err)
	case catalog.CodeCanonicalWrite, catalog.CodeCanonicalQuery, catalog.CodeCorruptState:
		return NewHTTPError(http.StatusInternalServerError, code, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, fallbackCode, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

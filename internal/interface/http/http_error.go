package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
)

// Error codes rendered in the response envelope.
const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
	codeRateLimited    = "rate_limit_exceeded"
	codeInternal       = "internal_error"
)

// HTTPError is what the error middleware renders as {"error":{code,message}}.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func badRequest(err error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, codeInvalidRequest, errMessage(err), err)
}

// domainError maps an apperrors code onto a status. fallbackCode names the
// operation for anything unclassified.
func domainError(err error, fallbackCode string) *HTTPError {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput:
		return badRequest(err)
	case apperrors.CodeStoreError:
		return NewHTTPError(http.StatusServiceUnavailable, apperrors.CodeStoreError, "storage temporarily unavailable", err)
	default:
		return NewHTTPError(http.StatusInternalServerError, fallbackCode, errMessage(err), err)
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if apperrors.CodeOf(err) != "" {
		return domainError(err, codeInternal)
	}
	return NewHTTPError(http.StatusInternalServerError, codeInternal, "something went wrong", err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

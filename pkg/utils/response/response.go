// Package response provides unified API response structures.
// Success payloads are flat objects tagged with status "success";
// error payloads carry the business error code and message so clients
// can distinguish failure modes without parsing message text.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Status values used by every API payload.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorBody is the unified error response structure.
type ErrorBody struct {
	// Status is always "error"
	Status string `json:"status"`

	// Code is the business error code
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// Err creates an error body from an Errno.
func Err(e *errors.Errno) *ErrorBody {
	if e == nil {
		e = errors.ErrUnknown
	}
	return &ErrorBody{
		Status:  StatusError,
		Code:    e.Code,
		Message: e.MessageEN,
	}
}

// ErrWithLang creates an error body with a language-specific message.
func ErrWithLang(e *errors.Errno, lang string) *ErrorBody {
	body := Err(e)
	if e != nil {
		body.Message = e.Message(lang)
	}
	return body
}

// OK writes a flat success payload. The payload struct is expected to
// carry its own status field set to "success".
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Fail converts err to an Errno and writes the error payload with the
// HTTP status the errno maps to.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	body := Err(e)
	if rid := c.GetString("request_id"); rid != "" {
		body.RequestID = rid
	}
	c.JSON(e.HTTPStatus(), body)
}

// FailWithErrno writes the error payload for a known errno.
func FailWithErrno(c *gin.Context, e *errors.Errno) {
	body := Err(e)
	if rid := c.GetString("request_id"); rid != "" {
		body.RequestID = rid
	}
	c.JSON(e.HTTPStatus(), body)
}

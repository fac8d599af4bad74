// Package response writes the JSON envelopes every API endpoint returns.
package response

import (
	"github.com/gin-gonic/gin"

	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

const CodeSuccess = "SUCCESS"

// Envelope wraps successful responses
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// ErrorBody is returned for every failed request
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"traceId,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Success writes data in the success envelope
func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
		TraceID: trace.ID(c.Request.Context()),
	})
}

// Error writes an error body and aborts the handler chain
func Error(c *gin.Context, status int, code, message, detail string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Code:    code,
		Message: message,
		TraceID: trace.ID(c.Request.Context()),
		Detail:  detail,
	})
}

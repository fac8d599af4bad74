package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloomi-app/bloomi-backend/internal/api/http/response"
	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

// Error codes returned to clients.
const (
	CodeMissingField          = "MISSING_FIELD"
	CodeInvalidInput          = "INVALID_INPUT"
	CodePayloadTooLarge       = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia      = "UNSUPPORTED_MEDIA"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeDailyLimitExceeded    = "DAILY_LIMIT_EXCEEDED"
	CodeNoMeal                = "VISION_NO_MEAL"
	CodeVisionTimeout         = "VISION_TIMEOUT"
	CodeVisionAPIError        = "VISION_API_ERROR"
	CodeVisionInvalidResponse = "VISION_INVALID_RESPONSE"
	CodeInternal              = "INTERNAL_ERROR"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string

	// exposeDetail copies err.Error() into the response detail.
	exposeDetail bool
}

// Order matters: the first sentinel err matches wins.
var errorMappings = []errorMapping{
	{domain.ErrImageRequired, http.StatusBadRequest, CodeMissingField, "Image file is required", true},
	{domain.ErrImageTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Image size exceeds limit", true},
	{domain.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Only image files are supported", true},
	{domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, "Invalid input", true},
	{domain.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "User not found", false},
	{domain.ErrDailyLimitExceeded, http.StatusTooManyRequests, CodeDailyLimitExceeded, "Daily analysis limit exceeded", true},
	{domain.ErrNoMealDetected, http.StatusBadRequest, CodeNoMeal, "No meal detected in the image", false},
	{domain.ErrVisionTimeout, http.StatusBadGateway, CodeVisionTimeout, "Vision provider timed out", false},
	{domain.ErrVisionInvalidResponse, http.StatusBadGateway, CodeVisionInvalidResponse, "Invalid response from vision provider", false},
	{domain.ErrVisionUpstream, http.StatusBadGateway, CodeVisionAPIError, "Vision provider error", false},
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m
		}
	}
	return errorMapping{status: http.StatusInternalServerError, code: CodeInternal, message: "Internal server error"}
}

// writeError maps err to a response. Internal details are logged, not returned.
func writeError(c *gin.Context, operation string, err error) {
	m := statusFor(err)
	if m.status >= http.StatusInternalServerError {
		logger.New(c.Request.Context()).LogError(operation, err)
	}

	detail := ""
	if m.exposeDetail {
		detail = err.Error()
	}
	response.Error(c, m.status, m.code, m.message, detail)
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/galactic-postbox/pkg/validation"
)

// H is the body of a successful response. "success" is added by Success.
type H map[string]any

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	RequestID string                  `json:"request_id,omitempty"`
	Errors    []validation.FieldError `json:"errors,omitempty"`
}

// Success writes {"success": true, ...body}.
func Success(ctx *gin.Context, status int, body H) {
	if status == 0 {
		status = http.StatusOK
	}
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	ctx.JSON(status, out)
}

// Error writes an error body with an optional field list.
func Error(ctx *gin.Context, status int, message string, details []validation.FieldError) {
	ctx.JSON(status, build(ctx, status, message, details))
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, build(ctx, status, message, nil))
}

func build(ctx *gin.Context, status int, message string, details []validation.FieldError) ErrorBody {
	if status == 0 {
		status = http.StatusBadRequest
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return ErrorBody{
		Success:   false,
		Message:   message,
		RequestID: ctx.GetString("request_id"),
		Errors:    details,
	}
}

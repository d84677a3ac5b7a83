package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the success envelope. Data is always serialized, null included.
type APIResponse[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     any    `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorBody is the structured error object carried by ErrorResponse.
type ErrorBody struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Details     any    `json:"details,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: ctx.GetString("request_id"),
	})
}

func Error(ctx *gin.Context, status int, message string, err any) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, newError(ctx, message, err))
}

// AbortError writes the failure envelope and stops the handler chain.
func AbortError(ctx *gin.Context, status int, message string, err any) {
	ctx.AbortWithStatusJSON(status, newError(ctx, message, err))
}

// NotFound writes the 404 envelope used when a referenced user is absent.
func NotFound(ctx *gin.Context, message, description string) {
	Error(ctx, http.StatusNotFound, message, ErrorBody{Code: http.StatusNotFound, Description: description})
}

func newError(ctx *gin.Context, message string, err any) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: ctx.GetString("request_id"),
	}
}

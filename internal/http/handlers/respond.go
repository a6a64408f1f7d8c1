package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/http/middlewares"
)

// APIError is the body of every JSON error response, always wrapped as
// {"error": APIError}.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// defaultCodes is used by the status-only helpers below.
var defaultCodes = map[int]string{
	http.StatusBadRequest:          "invalid_request",
	http.StatusNotFound:            "not_found",
	http.StatusInternalServerError: "internal_error",
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, errorEnvelope{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: middlewares.RequestIDFromContext(ctx),
		Details:   details,
	}})
}

func respondStatus(ctx *gin.Context, status int, message string, details any) {
	RespondError(ctx, status, defaultCodes[status], message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	respondStatus(ctx, http.StatusBadRequest, message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	respondStatus(ctx, http.StatusNotFound, message, nil)
}

// RespondInternal never carries details; the cause belongs in the log.
func RespondInternal(ctx *gin.Context, message string) {
	respondStatus(ctx, http.StatusInternalServerError, message, nil)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

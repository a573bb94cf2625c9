package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/auth"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func successJSON(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Message: "success", Data: data})
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Code: code, Message: message})
}

// Codes for failures raised by the HTTP layer itself.
const (
	CodeBadRequest       = "BadRequest"
	CodeInvalidSignature = "InvalidSignature"
	CodeInternal         = "Internal"
)

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidSignature), errors.Is(err, subledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case subledger.IsValidationError(err):
		return http.StatusBadRequest
	case subledger.IsAuthorizationError(err):
		return http.StatusForbidden
	case subledger.IsNotFound(err):
		return http.StatusNotFound
	case subledger.IsAlreadyInitialized(err):
		return http.StatusConflict
	case subledger.IsResourceError(err):
		return http.StatusPaymentRequired
	case subledger.IsArithmeticError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, subledger.ErrSubscriptionExpired):
		return http.StatusGone
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	code := subledger.CodeOf(err)
	msg := err.Error()
	switch {
	case errors.Is(err, auth.ErrInvalidSignature):
		code = CodeInvalidSignature
	case status == http.StatusInternalServerError:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		code, msg = CodeInternal, "internal error"
	}
	errorJSON(c, status, code, msg)
}

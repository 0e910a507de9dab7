package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sushiDelivery/internal/lifecycle"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func successResponse(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Status: "success", Message: message, Data: data})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Status: "fail", Message: message})
}

// statusFor maps lifecycle outcomes to HTTP status codes.
func statusFor(err error) int {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrWrongRole):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrPaymentDue):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

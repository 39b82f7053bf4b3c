package handlers

import (
	"context"
	"errors"
	"net/http"

	"gsj_gateway/internal/portal"
	"gsj_gateway/internal/service"
	"gsj_gateway/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	errNoSession = "no portal session"
	errTimeout   = "portal did not respond in time"
	errInternal  = "internal error"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service and portal errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	var (
		verr    *service.ValidationError
		authErr *portal.AuthError
		upErr   *portal.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errTimeout
	case errors.As(err, &authErr), errors.Is(err, session.ErrLoginThrottled):
		return http.StatusServiceUnavailable, errNoSession + ": " + err.Error()
	case errors.As(err, &upErr):
		return http.StatusBadGateway, upErr.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := statusFor(err)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "status", code}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(code, errorResponse{Error: msg})
}

package handlers

import (
	"errors"
	"net/http"

	"gsj_gateway/internal/models"
	"gsj_gateway/internal/portal"
	"gsj_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusRelogged = "relogged"
	errLoginFailed = "Login failed"
)

// LoginRequest is the per-request login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"jan@example.com"`
	Password string `json:"password" binding:"required" example:"secret"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("login_bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Per-request portal login
// @Description  Logs in with the given credentials without touching the cached session.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Portal credentials"
// @Success      200  {object}  map[string]interface{}  "cookies"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  map[string]interface{}  "error, cookies"
// @Failure      502  {object}  map[string]interface{}  "error, cookies"
// @Router       /login [post]
// @Security     BearerAuth
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	sess, err := h.services.PortalLogin.Login(c.Request.Context(), models.Credentials{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		var (
			authErr *portal.AuthError
			verr    *service.ValidationError
		)
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.As(err, &authErr):
			if h.log != nil {
				h.log.Infow("login_rejected", "username", input.Username, "reason", authErr.Reason)
			}
			cookies := authErr.Cookies
			if cookies == nil {
				cookies = map[string]string{}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": errLoginFailed, "cookies": cookies})
		default:
			code, msg := statusFor(err)
			if code < http.StatusInternalServerError {
				code = http.StatusBadGateway
			}
			if h.log != nil {
				h.log.Errorw("login_failed", "username", input.Username, "err", err)
			}
			c.JSON(code, gin.H{"error": msg, "cookies": map[string]string{}})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"cookies": sess.Filter(h.loginCookies...)})
}

// @Summary      Force a new cached session
// @Description  Logs in again with the configured credentials. The old session is kept if this fails.
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, obtained_at"
// @Failure      503  {object}  errorResponse
// @Router       /session/relogin [post]
// @Security     BearerAuth
func (h *Handler) relogin(c *gin.Context) {
	sess, err := h.services.Session.Relogin(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "relogin_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      statusRelogged,
		"obtained_at": sess.ObtainedAt,
	})
}

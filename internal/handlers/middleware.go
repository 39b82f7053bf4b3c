package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxSubject holds the token subject of an authenticated API client.
const ctxSubject = "subject"

const bearerChallenge = `Bearer realm="gsj_gateway"`

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (h *Handler) bearerMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.rejectToken(c, "missing Authorization header")
		return
	}
	token, ok := bearerToken(header)
	if !ok {
		h.rejectToken(c, "invalid Authorization header format")
		return
	}
	subject, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("api_token_rejected", "err", err, "path", c.FullPath(), "remote", c.ClientIP())
		}
		h.rejectToken(c, "invalid or expired token")
		return
	}
	c.Set(ctxSubject, subject)
	c.Next()
}

func (h *Handler) rejectToken(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", bearerChallenge)
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

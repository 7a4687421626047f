package http

import (
	"strings"

	"gameed/internal/app"
	"gameed/internal/domain"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticate resolves the bearer token and stores the caller identity in the context.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			h.fail(c, "Not authorized", domain.ErrMissingToken)
			return
		}
		id, err := h.svc.Auth.Authenticate(token)
		if err != nil {
			h.fail(c, "Not authorized", err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// Authorize must run after Authenticate. It rejects callers whose role is not listed.
func (h *Handler) Authorize(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := identity(c)
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		h.fail(c, "Not authorized", domain.ErrRoleNotPermitted)
	}
}

func identity(c *gin.Context) app.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(app.Identity); ok {
			return id
		}
	}
	return app.Identity{}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the parsed Claims.
const ClaimsKey = "claims"

// AdminAuth enforces bearer JWT tokens signed with HS256. deny writes the
// 401 response; nil uses a plain JSON error.
func AdminAuth(signingKey, issuer string, deny gin.HandlerFunc) gin.HandlerFunc {
	if deny == nil {
		deny = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			deny(c)
			c.Abort()
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			deny(c)
			c.Abort()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/model"
)

// Context keys set by Middleware.
const (
	ContextUserID = "user_id"
	ContextName   = "name"
	ContextRole   = "role"
)

// Middleware authenticates requests with a bearer token from the
// Authorization header, falling back to a token query parameter for
// clients that cannot set headers (EventSource, WebSocket).
func Middleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization token",
			})
			c.Abort()
			return
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextName, claims.Name)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated
// role is one of the given roles. It must run after Middleware.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization token",
			})
			c.Abort()
			return
		}

		role, ok := value.(model.Role)
		if ok {
			for _, allowed := range roles {
				if role == allowed {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "insufficient role",
		})
		c.Abort()
	}
}

// CurrentUser reads the authenticated identity from the gin context.
func CurrentUser(c *gin.Context) (id, name string, role model.Role, ok bool) {
	idVal, exists := c.Get(ContextUserID)
	if !exists {
		return "", "", "", false
	}
	id, _ = idVal.(string)

	if nameVal, exists := c.Get(ContextName); exists {
		name, _ = nameVal.(string)
	}
	if roleVal, exists := c.Get(ContextRole); exists {
		role, _ = roleVal.(model.Role)
	}
	return id, name, role, id != ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header != "" {
		return header
	}
	return c.Query("token")
}

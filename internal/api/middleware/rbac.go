package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// RequireRole returns middleware that allows only the given roles past.
// Admins always pass; an empty role in context means the request never
// went through JWTAuth and is rejected.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c.Request.Context())
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    apperrors.CodePermissionDenied,
				"message": "no role in context",
			})
			return
		}

		if role == domain.RoleAdmin || slices.Contains(roles, role) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    apperrors.CodePermissionDenied,
			"message": "insufficient permissions",
		})
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// RequireApprover restricts a route to approvers and administrators.
func RequireApprover() gin.HandlerFunc {
	return RequireRole(domain.RoleApprover)
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

// Context keys set by the middleware chain.
const (
	CtxAdmin = "admin"
	CtxForm  = "formObj"
	CtxField = "fieldObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT, loads the
// account and injects it into the context. Disabled accounts are rejected
// even when their token is still valid.
func AuthJWT(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		// AdminID in the claims is a string; parse it to look up by primary key.
		id, err := strconv.ParseUint(claims.AdminID, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid subject"})
			return
		}

		var admin models.Admin
		if err := db.First(&admin, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account not found"})
			return
		}
		if !admin.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account is disabled"})
			return
		}

		c.Set(CtxAdmin, admin)
		c.Next()
	}
}

// RequireAdmin blocks routes reserved for the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxAdmin)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		admin := v.(models.Admin)
		if admin.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentAdmin returns the account AuthJWT placed in the context.
func CurrentAdmin(c *gin.Context) models.Admin {
	return c.MustGet(CtxAdmin).(models.Admin)
}

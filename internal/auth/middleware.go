package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
)

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
	ctxUser   = "user"
)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

// Middleware requires a valid access token belonging to an active user.
func Middleware(iss *Issuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := iss.ParseAccessToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		setUser(c, db, claims)
	}
}

// RefreshMiddleware is Middleware for routes that take the refresh token.
func RefreshMiddleware(iss *Issuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := iss.ParseRefreshToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		setUser(c, db, claims)
	}
}

func setUser(c *gin.Context, db *gorm.DB, claims *Claims) {
	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.Subject).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if user.Status != models.UserActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is not active"})
		return
	}
	c.Set(ctxUserID, user.ID)
	c.Set(ctxRole, user.Role)
	c.Set(ctxUser, user)
	c.Next()
}

// RequireRole must run after Middleware.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func GetRole(c *gin.Context) models.UserRole {
	if v, ok := c.Get(ctxRole); ok {
		if r, ok2 := v.(models.UserRole); ok2 {
			return r
		}
	}
	return ""
}

func GetUser(c *gin.Context) (models.User, bool) {
	if v, ok := c.Get(ctxUser); ok {
		u, ok2 := v.(models.User)
		return u, ok2
	}
	return models.User{}, false
}

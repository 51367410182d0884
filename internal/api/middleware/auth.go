package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: models.ErrorBody{Message: message, Status: status}})
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates JWT tokens and sets user context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			log.Printf("❌ [Auth] Missing Authorization header - Path: %s", c.Request.URL.Path)
			abortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			log.Printf("❌ [Auth] Invalid header format - Path: %s", c.Request.URL.Path)
			abortWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := authService.ParseToken(tokenString)
		if err != nil {
			log.Printf("❌ [Auth] Invalid token - Path: %s, Error: %v", c.Request.URL.Path, err)
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// RequireAdmin reloads the caller so a revoked flag takes effect before the
// token expires. Must run after AuthMiddleware.
func RequireAdmin(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := RequireUserID(c)
		if !ok {
			return
		}

		user, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil || !user.IsAdmin {
			log.Printf("⚠️ [Auth] Admin access denied - UserID: %s, Path: %s", userID, c.Request.URL.Path)
			abortWithError(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// RequireUserID writes a 401 when the user ID is missing from the context.
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		log.Printf("❌ [Auth] User not authenticated - Path: %s", c.Request.URL.Path)
		abortWithError(c, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}
	return userID, true
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
	"github.com/tillpoint/pos/pkg/utils"
)

// AuthMiddleware validates the local session token and stamps the request
// context with the device's company and location scope, so every repository
// query below is bounded to this register's data.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_role", claims.Role)

		ctx := infraRepo.WithDevice(c.Request.Context(), claims.CompanyID, claims.LocationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole refuses the request unless the cashier holds one of the given
// roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.ErrorWithCode(c, 403, "Insufficient role privileges")
		c.Abort()
	}
}

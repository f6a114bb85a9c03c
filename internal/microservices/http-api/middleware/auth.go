package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// VendorIDKey is the gin context key holding the authenticated vendor id
const VendorIDKey = "vendor_id"

const vendorRole = "vendor"

// VendorAuth is a Gin middleware that authenticates marketplace vendors.
// Tokens are HS256 JWTs issued by the marketplace auth service carrying
// a vendor_id (or legacy id) claim and role "vendor".
func VendorAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return key, nil
		}, jwt.WithExpirationRequired())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		vendorID := stringClaim(claims, "vendor_id")
		if vendorID == "" {
			vendorID = stringClaim(claims, "id")
		}
		if vendorID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token has no vendor id"})
			c.Abort()
			return
		}

		if role := stringClaim(claims, "role"); role != vendorRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "Insufficient permissions",
				"required": vendorRole,
				"current":  role,
			})
			c.Abort()
			return
		}

		c.Set(VendorIDKey, vendorID)
		c.Next()
	}
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return strings.TrimSpace(v)
}

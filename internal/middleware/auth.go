package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/promoforge/promoq/pkg/config"
)

// AuthMiddleware validates HS256 bearer tokens on mutating endpoints. In dev
// without a configured secret it degrades to header-based roles so local
// clients do not need to mint tokens.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AuthSecret == "" {
			if cfg.Env == "dev" {
				setCallerContext(c, c.GetHeader("X-Subject"), strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role"))))
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth secret not configured"})
			return
		}

		claims, err := validateBearer(cfg.AuthSecret, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		subject, _ := claims["sub"].(string)
		role := ""
		if v, ok := claims["role"].(string); ok {
			role = strings.ToUpper(strings.TrimSpace(v))
		}
		if role == "" && cfg.Env == "dev" {
			role = strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
		}
		setCallerContext(c, subject, role)
		c.Next()
	}
}

func validateBearer(secret, authHeader string) (jwt.MapClaims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("invalid Authorization format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func setCallerContext(c *gin.Context, subject, role string) {
	if role == "" {
		role = "USER"
	}
	c.Set("userSubject", strings.TrimSpace(subject))
	c.Set("userRole", role)
}

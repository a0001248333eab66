package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"portal/internal/access"
	"portal/internal/view"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// Authenticate resolves the caller from the access_token cookie or a Bearer
// header. It never aborts: RequireRank decides what an anonymous caller may reach.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		identity, err := parseIdentity(tokenString, secret)
		if err != nil {
			log.Printf("rejected token from %s: %v", c.ClientIP(), err)
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRank aborts with 401 unless the authenticated caller satisfies req.
// JSON routes get the response envelope, page routes get the error page.
func RequireRank(ranks access.Ranks, req access.Requirement, asJSON bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			deny(c, asJSON, "Authorization is missing")
			return
		}
		if !ranks.Allows(identity.Rank, req) {
			deny(c, asJSON, ranks.Reason(req))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller set by Authenticate.
func CurrentIdentity(c *gin.Context) (access.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return access.Identity{}, false
	}
	identity, ok := v.(access.Identity)
	return identity, ok
}

func deny(c *gin.Context, asJSON bool, reason string) {
	if asJSON {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, reason))
		return
	}
	c.HTML(http.StatusUnauthorized, view.ErrorPage, view.ErrorData{
		Title:   "Unauthorized",
		Message: reason,
	})
	c.Abort()
}

// Try cookie first, fallback to Authorization header
func bearerToken(c *gin.Context) string {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func parseIdentity(tokenString string, secret []byte) (access.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return access.Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return access.Identity{}, fmt.Errorf("invalid token claims")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		email, _ = claims["sub"].(string)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return access.Identity{}, fmt.Errorf("token carries no email")
	}

	rank, err := levelClaim(claims["level"])
	if err != nil {
		return access.Identity{}, err
	}
	return access.Identity{Email: email, Rank: rank}, nil
}

// levelClaim accepts the level as a JSON number or a numeric string.
func levelClaim(v interface{}) (int, error) {
	switch level := v.(type) {
	case float64:
		return int(level), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(level))
		if err != nil {
			return 0, fmt.Errorf("invalid level claim %q", level)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid level claim type %T", v)
	}
}

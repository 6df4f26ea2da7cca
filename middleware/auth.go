package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"Strimoid/pkg/config"
	tokenstore "Strimoid/pkg/token"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
	ContextExpKey    = "current_token_exp"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("Token has been revoked (logout)")
	ErrBadSubject   = errors.New("invalid subject in token")
)

// Claims is what the API reads from a verified token.
type Claims struct {
	UserID uint
	JTI    string
	Exp    time.Time
}

// ParseToken verifies an HMAC-signed token and checks revocation.
func ParseToken(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if tokenstore.IsRevoked(jti) {
		return Claims{}, ErrRevoked
	}

	var uid uint64
	switch sub := claims["sub"].(type) {
	case string:
		uid, err = strconv.ParseUint(sub, 10, 64)
	case float64:
		// jwt lib may parse numeric as float64
		uid = uint64(sub)
	default:
		err = ErrBadSubject
	}
	if err != nil || uid == 0 {
		return Claims{}, ErrBadSubject
	}

	out := Claims{UserID: uint(uid), JTI: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Exp = exp.Time
	}
	return out, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextJTIKey, claims.JTI)
		c.Set(ContextExpKey, claims.Exp)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0 outside AuthMiddleware.
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserIDKey)
}

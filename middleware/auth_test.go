package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Strimoid/pkg/config"
	tokenstore "Strimoid/pkg/token"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.JWTSecret = "test-secret"

	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})

	exp := time.Now().Add(time.Hour).Unix()
	valid := signed(t, jwt.MapClaims{"sub": "42", "exp": exp, "jti": "a1"})
	revoked := signed(t, jwt.MapClaims{"sub": "42", "exp": exp, "jti": "a2"})
	tokenstore.RevokeToken("a2", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized},
		{"no subject", "Bearer " + signed(t, jwt.MapClaims{"exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"id":42}`, w.Body.String())
			}
		})
	}
}

func TestParseTokenNumericSubject(t *testing.T) {
	config.JWTSecret = "test-secret"
	claims, err := ParseToken(signed(t, jwt.MapClaims{"sub": 9, "exp": time.Now().Add(time.Hour).Unix()}))
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.False(t, claims.Exp.IsZero())
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c).String(), "role": GetUserRole(c)})
	})
	r.GET("/admin", AuthMiddleware(secret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "abc", http.StatusUnauthorized},
		{"wrong key", sign(t, jwt.MapClaims{"sub": id.String(), "exp": exp}, "other"), http.StatusUnauthorized},
		{"expired", sign(t, jwt.MapClaims{"sub": id.String(), "exp": time.Now().Add(-time.Minute).Unix()}, secret), http.StatusUnauthorized},
		{"no expiry", sign(t, jwt.MapClaims{"sub": id.String()}, secret), http.StatusUnauthorized},
		{"bad subject", sign(t, jwt.MapClaims{"sub": "nope", "exp": exp}, secret), http.StatusUnauthorized},
		{"valid", sign(t, jwt.MapClaims{"sub": id.String(), "role": "customer", "exp": exp}, secret), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/me", tt.token)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), id.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	r := newRouter()
	exp := time.Now().Add(time.Hour).Unix()

	customer := sign(t, jwt.MapClaims{"sub": uuid.NewString(), "role": "customer", "exp": exp}, secret)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", customer).Code)

	admin := sign(t, jwt.MapClaims{"sub": uuid.NewString(), "role": "admin", "exp": exp}, secret)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}

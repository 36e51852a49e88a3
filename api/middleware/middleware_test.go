package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/agusprema/gamehostify-checkout/config"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecretKeyAuthMiddleware())
	r.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestSecretKeyAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		secretKey    string
		clientKey    string
		expectedCode int
	}{
		{
			name:         "valid key",
			secretKey:    "master-key",
			clientKey:    "master-key",
			expectedCode: http.StatusOK,
		},
		{
			name:         "invalid key",
			secretKey:    "master-key",
			clientKey:    "wrong-key",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "missing key",
			secretKey:    "master-key",
			clientKey:    "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "secret not configured",
			secretKey:    "",
			clientKey:    "anything",
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.MockConfig(&config.Configuration{
				Server: config.ServerConfig{Secure: true, SecretKey: tt.secretKey},
			})

			router := authTestRouter()
			req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
			if tt.clientKey != "" {
				req.Header.Set("X-Checkout-Key", tt.clientKey)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestRateLimitMiddlewareDisabledByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)

	conf := &config.Configuration{}
	r := gin.New()
	r.Use(RateLimitMiddleware(conf))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}

func TestRateLimitMiddlewareEnforcesLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rps := 1.0
	burst := 1
	cleanup := 60
	conf := &config.Configuration{
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:  &rps,
			Burst:              &burst,
			CleanupIntervalSec: &cleanup,
		},
	}

	r := gin.New()
	r.Use(RateLimitMiddleware(conf))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:52000"
	r.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:52000"
	r.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasktracker/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_NilLimiterIsNoop(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ratelimit.Middleware(nil, 100, 15*time.Minute))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Act - без Redis все запросы должны проходить
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("GET", "/ping", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		// Assert
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Header().Get("X-RateLimit-Limit"))
	}
}

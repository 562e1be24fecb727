package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/freightdocs/invoice-matcher/internal/common"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(requestLogger(slog.Default()))
	r.GET("/ping", func(c *gin.Context) {
		seen = common.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("mints an id and threads it through the request context", func(t *testing.T) {
		seen = ""
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("honors an inbound X-Request-ID", func(t *testing.T) {
		seen = ""
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-abc-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-abc-123", seen)
		assert.Equal(t, "req-abc-123", w.Header().Get("X-Request-ID"))
	})
}

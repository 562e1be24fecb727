package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/extract"
	"github.com/freightdocs/invoice-matcher/internal/recon"
	"github.com/freightdocs/invoice-matcher/internal/render"
)

// Handler exposes the matching pipeline over HTTP.
type Handler struct {
	extractor extract.Extractor
	recon     *recon.Service
	writer    *render.VerifiedInvoiceWriter
	db        *sql.DB
	logger    *slog.Logger
}

func NewHandler(extractor extract.Extractor, svc *recon.Service, writer *render.VerifiedInvoiceWriter, db *sql.DB, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		extractor: extractor,
		recon:     svc,
		writer:    writer,
		db:        db,
		logger:    logger,
	}
}

// NewRouter wires the routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.POST("/match", h.Match)
	r.GET("/healthz", h.Health)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger assigns each request an ID, threads it through the request
// context so downstream clients log the same req_id, and logs the request.
// An inbound X-Request-ID is honored for cross-service correlation.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Writer.Header().Set("X-Request-ID", rid)

		c.Next()
		logger.Info("http.request",
			"req_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

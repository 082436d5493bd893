package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/timeledger/internal/service"
)

// NewRouter builds the gin engine serving the timesheet API.
func NewRouter(engine service.Engine, jwtSecret []byte, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(engine)

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/timesheet")
	api.Use(Auth(jwtSecret))

	api.POST("/time-slot", h.IngestTimeSlot)
	api.POST("/time-slot/bulk", h.BulkIngestTimeSlots)
	api.POST("/time-slot/merge", h.MergeSlots)
	api.GET("/time-slot", h.ListTimeSlots)

	api.POST("/time-log", h.AddManualTime)
	api.PUT("/time-log/:id", h.UpdateManualTime)
	api.DELETE("/time-log", h.DeleteTimeLogs)
	api.GET("/time-log", h.ListTimeLogs)

	api.POST("/timer/start", h.StartTimer)
	api.POST("/timer/stop", h.StopTimer)

	api.GET("/current", h.CurrentTimesheet)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

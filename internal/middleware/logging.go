// Package middleware holds the Gin middlewares.
package middleware

import (
	"time"

	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request. Bodies are not
// captured: uploads and downloads carry arbitrary binary payloads.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"responseSize", c.Writer.Size(),
		)
	}
}

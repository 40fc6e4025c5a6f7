package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request with the bytes written and the
// authenticated user when there is one
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		user := c.GetString(UserKey)
		if user == "" {
			user = "-"
		}
		log.Printf("[HTTP] %s %s %d %dB %v %s %s %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).Round(time.Microsecond),
			c.ClientIP(),
			user,
			c.Errors.String(),
		)
	}
}

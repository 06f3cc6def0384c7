// internal/interfaces/http/middleware/request_id.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxRequestID    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// RequestID tags every request with an id, reusing the caller's if it is a UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id RequestID assigned
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"pomelo/internal/pkg/id"
)

// RequestIDHeader 请求ID的响应头
const RequestIDHeader = "X-Request-ID"

// requestIDKey gin context 中的 key
const requestIDKey = "request_id"

// RequestID 为每个请求分配一个ID，透传调用方传入的ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = id.New()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID 从 gin context 中取请求ID
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

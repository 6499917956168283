package middleware

import (
	"compress/gzip"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DecompressRequest transparently unwraps gzip-encoded request bodies.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Content-Encoding") == "gzip" {
			reader, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			defer reader.Close()
			c.Request.Body = reader
			c.Request.Header.Del("Content-Encoding")
		}
		c.Next()
	}
}

// Package httpmiddleware provides the gin middleware shared by the HTTP
// servers: request identifiers, structured request logging, panic recovery,
// CORS, and rate limiting.
package httpmiddleware

import (
	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures every request carries a unique identifier. A valid
// incoming X-Request-ID header is reused, anything else is replaced with a
// fresh UUID. The id is echoed on the response and attached to the request
// logger, so every log line of the request carries it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		c.Header(requestIDHeader, id)

		ctx := zctx.With(c.Request.Context(), zap.String("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// validRequestID accepts non-empty ids of at most 128 bytes of printable
// ASCII. Anything longer or binary is attacker-controlled noise.
func validRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}

// Package requestid tags every request with an id so one dashboard page
// load, which fans out into several summary and journal calls, can be
// stitched back together in the logs.
package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the id on requests and responses.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware reuses the caller-supplied id when it looks sane and mints a
// UUID otherwise. The id is echoed on the response so the dashboard can
// quote it in support reports.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the id assigned to the current request, or "" when called
// outside the middleware.
func Value(c *gin.Context) string {
	v, ok := c.Get(contextKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

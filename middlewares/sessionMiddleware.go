package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kiranasoft/kirana_backend/utils"
)

// DefaultTerminalId is used when a client does not identify its counter.
// Single-till shops never need to send the header.
const DefaultTerminalId = "counter-1"

// SessionMiddleware tags every request with a terminal id (which selects the
// server-side cart) and a correlation id (propagated into logs and
// reconciliation reports, echoed back in the response).
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		terminalId := c.Request.Header.Get("X-Terminal-Id")
		if terminalId == "" {
			terminalId = DefaultTerminalId
		}

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := utils.SetTerminalIdInContext(c.Request.Context(), terminalId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)
		c.Next()
	}
}

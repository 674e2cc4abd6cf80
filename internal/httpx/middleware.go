package httpx

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie identifies the shopping session; the cart lives under it.
const SessionCookie = "cart_session"

const sessionKey = "session"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// Session makes sure every request carries a cart session id, issuing a
// cookie on first contact.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(SessionCookie, sid, int((30 * time.Minute).Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the cart session id installed by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("rid", c.GetString("rid")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	}
}

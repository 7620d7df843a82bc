package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

const accountKey = "account"

// authRequired lets the request through only when its bearer token is the
// caller's current session token. The resolved account is stored under
// accountKey.
func (s *Server) authRequired(c *gin.Context) {
	account, err := s.guard.Authenticate(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
	if err != nil {
		if code := statusOf(err); code != http.StatusUnauthorized {
			s.fail(c, err)
			return
		}
		s.logger.Debug(c.Request.Context(), "authentication failed", "error", err)
		abortWith(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	c.Set(accountKey, account)
	c.Next()
}

func currentAccount(c *gin.Context) *models.Account {
	return c.MustGet(accountKey).(*models.Account)
}

// requestLogger logs one line per request. The route template is logged
// instead of the raw path so tokens in URLs stay out of the log.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

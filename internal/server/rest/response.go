package rest

import (
	"net/http"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var statusByKind = map[common.Kind]int{
	common.KindBadRequest:   http.StatusBadRequest,
	common.KindUnauthorized: http.StatusUnauthorized,
	common.KindNotFound:     http.StatusNotFound,
	common.KindConflict:     http.StatusConflict,
	common.KindInternal:     http.StatusInternalServerError,
}

func statusOf(err error) int {
	if code, ok := statusByKind[common.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Status: "success", Code: code, Message: message, Data: data})
}

func abortWith(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope{Status: "error", Code: code, Message: message})
}

// fail writes err as an error response. Internal failures are logged and
// reported without detail.
func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	abortWith(c, code, common.MessageOf(err))
}

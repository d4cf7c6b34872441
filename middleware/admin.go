package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/session"
	"github.com/cppla/blog/utils"
)

// AdminOnly lets the request through only when the principal holds the
// administrator role. Anonymous visitors and other users get 403.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.Principal(c)
		if !user.IsAdmin() {
			utils.Sugar.Infow("admin route refused", "path", c.Request.URL.Path, "authenticated", user != nil)
			utils.ErrorPage(c, http.StatusForbidden)
			return
		}
		c.Next()
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/services"
	"github.com/cppla/blog/session"
	"github.com/cppla/blog/utils"
)

// LoadPrincipal resolves the email bound to the session into a user and stores it
// in the request context. A binding to an account that no longer exists is cleared.
func LoadPrincipal(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := session.GetLoginEmail(c)
		if email == "" {
			c.Next()
			return
		}

		user, err := users.GetByEmail(email)
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Sugar.Infow("session bound to unknown account, clearing", "email", email)
			if err := session.ClearSession(c); err != nil {
				utils.Sugar.Warnf("clear session failed: %v", err)
			}
		case err != nil:
			utils.Sugar.Errorf("resolve session principal: %v", err)
			utils.ErrorPage(c, http.StatusInternalServerError)
			return
		default:
			session.SetPrincipal(c, user)
		}
		c.Next()
	}
}

// Package session binds a browser session to a user and carries one-time flash notices.
package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gorillasessions "github.com/gorilla/sessions"

	"github.com/cppla/blog/models"
)

const (
	loginEmail = "LOGIN_EMAIL"
	// ContextUserKey is where the principal resolved for this request is stored in the gin context.
	ContextUserKey = "principal"
)

// SetLoginUser binds the session to the user's email. A server-side session
// gets a fresh id first, so an id planted before login is worthless after it.
func SetLoginUser(c *gin.Context, user *models.User) error {
	s := sessions.Default(c)
	if err := renewID(c, s); err != nil {
		return err
	}
	s.Set(loginEmail, user.Email)
	return s.Save()
}

// renewID drops the id of a Redis backed session. Cookie sessions carry no id
// and are re-signed on every save.
func renewID(c *gin.Context, s sessions.Session) error {
	holder, ok := s.(interface {
		Session() *gorillasessions.Session
	})
	if !ok {
		return nil
	}
	gs := holder.Session()
	if rs, ok := gs.Store().(*RedisStore); ok {
		return rs.Renew(c.Request.Context(), gs)
	}
	return nil
}

// GetLoginEmail returns the email bound to the session, or "" for an anonymous visitor.
func GetLoginEmail(c *gin.Context) string {
	s := sessions.Default(c)
	if v, ok := s.Get(loginEmail).(string); ok {
		return v
	}
	return ""
}

// ClearSession drops the binding and everything else stored in the session.
// The cookie itself survives so a flash queued afterwards still reaches the next page.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

// AddFlash queues a notice for the next rendered page.
func AddFlash(c *gin.Context, msg string) error {
	s, ok := current(c)
	if !ok {
		return nil
	}
	s.AddFlash(msg)
	return s.Save()
}

// Flashes drains the queued notices.
func Flashes(c *gin.Context) []string {
	s, ok := current(c)
	if !ok {
		return nil
	}
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// SetPrincipal records the user resolved for this request.
func SetPrincipal(c *gin.Context, user *models.User) {
	c.Set(ContextUserKey, user)
}

// Principal returns the user resolved for this request, or nil.
func Principal(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// current returns the request's session, if the sessions middleware ran.
func current(c *gin.Context) (sessions.Session, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil, false
	}
	return sessions.Default(c), true
}

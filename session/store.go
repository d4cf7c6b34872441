package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/redis/go-redis/v9"

	"github.com/cppla/blog/config"
)

// NewStore returns the session store for cfg: Redis backed when rc is non-nil,
// otherwise a signed cookie store.
func NewStore(cfg config.AppConfig, rc *redis.Client) sessions.Store {
	var store sessions.Store
	if rc != nil {
		store = NewRedisStore(rc, []byte(cfg.SecretKey))
	} else {
		store = cookie.NewStore([]byte(cfg.SecretKey))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeMinutes * 60,
		Secure:   cfg.SessionSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

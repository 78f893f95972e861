package middleware

import (
	"net/http"

	"fleetconsole/internal/access"
	"fleetconsole/internal/session"
	"fleetconsole/internal/utils"

	"github.com/gin-gonic/gin"
)

const sessionKey = "console_session"

// SessionSource returns the current operator session.
type SessionSource interface {
	GetSession() *session.Session
}

// Guard resolves every navigation against the screen table. Denied visits
// are redirected with a flash message and never reach the handler.
func Guard(table *access.Table, sessions SessionSource, flashes *Flashes) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.GetSession()
		path := c.Request.URL.Path

		switch table.Resolve(path, sess) {
		case access.RedirectLogin:
			utils.LogEvent(GetRequestID(c), "guard", "redirect_login", path)
			if flashes != nil {
				flashes.Add(c, "warning", "please log in to continue")
			}
			c.Redirect(http.StatusFound, access.LoginPath)
			c.Abort()
			return
		case access.RedirectForbidden:
			utils.LogEvent(GetRequestID(c), "guard", "redirect_forbidden", path+" role="+string(sess.Role))
			if flashes != nil {
				flashes.Add(c, "error", "you do not have access to that page")
			}
			c.Redirect(http.StatusFound, access.ForbiddenPath)
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session Guard admitted, if any.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

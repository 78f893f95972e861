package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const flashSession = "console-flash"

// Flash is a one-shot notification carried across a redirect.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Flashes keeps flash messages in a signed cookie.
type Flashes struct {
	store *sessions.CookieStore
}

func NewFlashes(secret string) *Flashes {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{Path: "/", MaxAge: 300, HttpOnly: true, SameSite: http.SameSiteLaxMode}
	return &Flashes{store: store}
}

// Add queues a message for the next response that reads flashes.
func (f *Flashes) Add(c *gin.Context, level, message string) {
	sess, _ := f.store.Get(c.Request, flashSession)
	sess.AddFlash(level + "|" + message)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Printf("[HTTP] request_id=%s flash save failed: %v", GetRequestID(c), err)
	}
}

// Pop returns and clears the queued messages.
func (f *Flashes) Pop(c *gin.Context) []Flash {
	sess, err := f.store.Get(c.Request, flashSession)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		level, msg, found := strings.Cut(s, "|")
		if !found {
			level, msg = "info", s
		}
		out = append(out, Flash{Level: level, Message: msg})
	}
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Printf("[HTTP] request_id=%s flash save failed: %v", GetRequestID(c), err)
	}
	return out
}

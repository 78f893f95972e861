package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fleetconsole/internal/access"
	"fleetconsole/internal/session"

	"github.com/gin-gonic/gin"
)

type fixedSessions struct{ s *session.Session }

func (f fixedSessions) GetSession() *session.Session { return f.s }

func guarded(sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Guard(access.DefaultTable(), fixedSessions{sess}, NewFlashes("test-secret")))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/admin", ok)
	r.GET("/dispatcher/requests", ok)
	r.GET("/login", ok)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	w := get(guarded(nil), "/dispatcher/requests")
	if w.Code != http.StatusFound || w.Header().Get("Location") != access.LoginPath {
		t.Fatalf("got %d %q", w.Code, w.Header().Get("Location"))
	}
	if w.Header().Get("Set-Cookie") == "" {
		t.Fatalf("expected flash cookie")
	}
}

func TestGuardRedirectsWrongRoleToForbidden(t *testing.T) {
	sess := &session.Session{UserID: "2", Role: session.RoleDispatcher, AccessToken: "a", RefreshToken: "r"}
	r := guarded(sess)
	if w := get(r, "/admin"); w.Code != http.StatusFound || w.Header().Get("Location") != access.ForbiddenPath {
		t.Fatalf("admin as dispatcher: %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := get(r, "/dispatcher/requests"); w.Code != http.StatusOK {
		t.Fatalf("dispatcher screen: %d", w.Code)
	}
}

func TestGuardLeavesPublicPathsAlone(t *testing.T) {
	if w := get(guarded(nil), "/login"); w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}
}

func TestRequestIDEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" || w.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("request id not echoed: %q", w.Body.String())
	}

	w = get(r, "/")
	if len(w.Body.String()) != 36 {
		t.Fatalf("generated id %q is not a uuid", w.Body.String())
	}
}

func TestFlashRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := NewFlashes("test-secret")
	r := gin.New()
	r.GET("/set", func(c *gin.Context) { f.Add(c, "error", "boom"); c.Status(http.StatusNoContent) })
	r.GET("/pop", func(c *gin.Context) { c.JSON(http.StatusOK, f.Pop(c)) })

	w := get(r, "/set")
	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	for _, ck := range w.Result().Cookies() {
		req.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Body.String() != `[{"level":"error","message":"boom"}]` {
		t.Fatalf("flashes = %s", w2.Body.String())
	}
}

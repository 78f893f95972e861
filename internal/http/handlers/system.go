package handlers

import (
	"net/http"
	"sync"

	"fleetconsole/internal/access"
	intconfig "fleetconsole/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "fleet console running"})
}

// DBCheck pings the local storage database.
func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "storage OK"})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// Landing sends an authenticated visit to its role's home screen.
func (h *Console) Landing(c *gin.Context) {
	path, _ := access.Landing(h.Sessions.GetSession())
	c.Redirect(http.StatusFound, path)
}

func (h *Console) Forbidden(c *gin.Context) {
	home, ok := access.Landing(h.Sessions.GetSession())
	data := gin.H{"message": "you do not have access to that page"}
	if ok {
		data["home"] = home
	}
	h.screen(c, "forbidden", data)
}

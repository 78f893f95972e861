package handlers

import (
	"net/http"

	"fleetconsole/internal/notify"

	"github.com/gin-gonic/gin"
)

func (h *Console) Notifications(c *gin.Context) {
	items := []notify.Entry{}
	if h.Feed != nil {
		items = append(items, h.Feed.Recent()...)
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

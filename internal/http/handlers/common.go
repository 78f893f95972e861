package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RespondError sends a plain error notification for failures that happen
// before any domain call.
func RespondError(c *gin.Context, status int, message string) {
	respondNotification(c, status, levelError, message, nil)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "request body is empty")
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	return true
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return domain.Pagination{Page: page, PageSize: size}.Normalize()
}

// screen renders a console view model with any pending flash messages.
func (h *Console) screen(c *gin.Context, name string, data gin.H) {
	payload := gin.H{"screen": name}
	if s := middleware.CurrentSession(c); s != nil {
		payload["user"] = gin.H{"id": s.UserID, "name": s.Name, "email": s.Email, "role": s.Role}
	}
	if h.Flashes != nil {
		if f := h.Flashes.Pop(c); len(f) > 0 {
			payload["flash"] = f
		}
	}
	for k, v := range data {
		payload[k] = v
	}
	c.JSON(http.StatusOK, payload)
}

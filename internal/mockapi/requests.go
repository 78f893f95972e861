package mockapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func pagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return domain.Pagination{Page: page, PageSize: size}.Normalize()
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"field": "id", "error": "invalid id"})
		return 0, false
	}
	return id, true
}

// visible reports whether the caller may see r. Plain users see only their
// own requests.
func visible(c *gin.Context, r *models.TransportRequest) bool {
	if strings.EqualFold(c.GetString(ctxUserRole), "user") {
		return r.RequesterID == c.GetInt64(ctxUserID)
	}
	return true
}

// GET /api/requests?status=&username=&page=&pageSize=
func (s *Server) listRequests(c *gin.Context) {
	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		st, ok := models.ParseRequestStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"field": "status", "error": "unknown status"})
			return
		}
		status = &st
	}
	username := strings.ToLower(strings.TrimSpace(c.Query("username")))

	s.mu.RLock()
	out := []models.TransportRequest{}
	for _, r := range s.requests {
		if !visible(c, r) {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		if username != "" && !strings.Contains(strings.ToLower(r.RequesterName), username) {
			continue
		}
		out = append(out, cloneRequest(*r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	c.JSON(http.StatusOK, domain.PageOf(out, pagination(c)))
}

// GET /api/requests/:id
func (s *Server) getRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.RLock()
	r, found := s.requests[id]
	var out models.TransportRequest
	if found {
		found = visible(c, r)
		out = cloneRequest(*r)
	}
	s.mu.RUnlock()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// PATCH /api/requests/:id
func (s *Server) updateRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var upd models.RequestUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	s.mu.Lock()
	r, found := s.requests[id]
	if !found {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if status, field, msg := s.validateUpdateLocked(r, upd); status != 0 {
		s.mu.Unlock()
		c.JSON(status, gin.H{"field": field, "error": msg})
		return
	}

	if upd.Status != nil {
		r.Status = *upd.Status
		r.StatusText = r.Status.String()
	}
	if upd.Comments != nil {
		r.Comments = strings.TrimSpace(*upd.Comments)
	}
	if upd.DriverID != nil {
		r.AssignedDriverID = *upd.DriverID
		name := s.drivers[*upd.DriverID].Name
		for i := range r.Routes {
			r.Routes[i].DriverName = name
		}
	}
	if r.Status == models.StatusRejected {
		r.AssignedDriverID = 0
	}
	out := cloneRequest(*r)
	s.mu.Unlock()

	s.Publish(models.Notification{
		Title: fmt.Sprintf("Request #%d %s", out.ID, out.StatusText),
		Body:  fmt.Sprintf("Request for %s was %s", out.Date, out.StatusText),
	})
	c.JSON(http.StatusOK, out)
}

// validateUpdateLocked returns a non-zero HTTP status when upd is refused.
func (s *Server) validateUpdateLocked(r *models.TransportRequest, upd models.RequestUpdate) (int, string, string) {
	if upd.Status != nil && !upd.Status.Valid() {
		return http.StatusBadRequest, "status", "unknown status"
	}
	next := r.Status
	if upd.Status != nil {
		next = *upd.Status
	}

	switch next {
	case models.StatusApproved:
		driverID := r.AssignedDriverID
		if upd.DriverID != nil {
			driverID = *upd.DriverID
		}
		if driverID == 0 {
			return http.StatusBadRequest, "driverId", "a driver is required to approve"
		}
		driver, ok := s.drivers[driverID]
		if !ok {
			return http.StatusBadRequest, "driverId", "driver does not exist"
		}
		for _, other := range s.requests {
			if other.ID != r.ID && other.Status == models.StatusApproved &&
				other.AssignedDriverID == driverID && other.Date == r.Date {
				return http.StatusConflict, "driverId",
					fmt.Sprintf("driver %s is already assigned to request #%d on %s", driver.Name, other.ID, other.Date)
			}
		}
	case models.StatusRejected:
		comments := r.Comments
		if upd.Comments != nil {
			comments = *upd.Comments
		}
		if upd.Status != nil && strings.TrimSpace(comments) == "" {
			return http.StatusBadRequest, "comments", "a reason is required to reject"
		}
	}
	return 0, "", ""
}

package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/session"

	"github.com/gin-gonic/gin"
)

// GET /api/drivers?name=
func (s *Server) listDrivers(c *gin.Context) {
	name := strings.ToLower(strings.Join(strings.Fields(c.Query("name")), " "))

	s.mu.RLock()
	out := []models.Driver{}
	for _, d := range s.drivers {
		if name != "" && !strings.Contains(strings.ToLower(d.Name), name) {
			continue
		}
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, domain.PageOf(out, pagination(c)))
}

// GET /api/cars
func (s *Server) listCars(c *gin.Context) {
	s.mu.RLock()
	out := make([]models.Car, 0, len(s.cars))
	for _, car := range s.cars {
		out = append(out, car)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, domain.PageOf(out, pagination(c)))
}

// GET /api/trips?driverId=&requesterId=
func (s *Server) listTrips(c *gin.Context) {
	driverID, _ := strconv.ParseInt(c.Query("driverId"), 10, 64)
	requesterID, _ := strconv.ParseInt(c.Query("requesterId"), 10, 64)

	// users only ever see their own history
	if strings.EqualFold(c.GetString(ctxUserRole), "user") {
		requesterID = c.GetInt64(ctxUserID)
	}

	c.JSON(http.StatusOK, domain.PageOf(s.filterTrips(driverID, requesterID), pagination(c)))
}

func (s *Server) filterTrips(driverID, requesterID int64) []models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Trip{}
	for _, t := range s.trips {
		if driverID > 0 && t.DriverID != driverID {
			continue
		}
		if requesterID > 0 && t.RequesterID != requesterID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// POST /api/devices
func (s *Server) registerDevice(c *gin.Context) {
	var in struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"field": "token", "error": "token is required"})
		return
	}
	uid := c.GetInt64(ctxUserID)
	s.mu.Lock()
	s.devices[uid] = append(s.devices[uid], in.Token)
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// GET /api/users
func (s *Server) listUsers(c *gin.Context) {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.User)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, domain.PageOf(out, pagination(c)))
}

// GET /api/users/:id
func (s *Server) getUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := s.account(id)
	if acc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, acc.User)
}

func bindUserInput(c *gin.Context, creating bool) (models.UserInput, bool) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return in, false
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	role, known := session.ParseRole(in.Role)
	in.Role = string(role)
	switch {
	case strings.TrimSpace(in.Name) == "":
		c.JSON(http.StatusBadRequest, gin.H{"field": "name", "error": "name is required"})
	case !strings.Contains(in.Email, "@"):
		c.JSON(http.StatusBadRequest, gin.H{"field": "email", "error": "email is invalid"})
	case !known:
		c.JSON(http.StatusBadRequest, gin.H{"field": "role", "error": "role is invalid"})
	case creating && len(in.Password) < 8:
		c.JSON(http.StatusBadRequest, gin.H{"field": "password", "error": "password is too short"})
	default:
		return in, true
	}
	return in, false
}

// POST /api/users
func (s *Server) createUser(c *gin.Context) {
	in, ok := bindUserInput(c, true)
	if !ok {
		return
	}
	if s.findByEmail(in.Email) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"field": "email", "error": "email is already registered"})
		return
	}
	hash := s.hash(in.Password)

	s.mu.Lock()
	s.nextUserID++
	acc := &account{
		User:         models.User{ID: s.nextUserID, Name: strings.TrimSpace(in.Name), Email: in.Email, Role: in.Role},
		PasswordHash: hash,
	}
	s.accounts[acc.ID] = acc
	s.mu.Unlock()

	c.JSON(http.StatusCreated, acc.User)
}

// PUT /api/users/:id
func (s *Server) updateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	in, ok := bindUserInput(c, false)
	if !ok {
		return
	}
	if other := s.findByEmail(in.Email); other != nil && other.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"field": "email", "error": "email is already registered"})
		return
	}
	var hash string
	if in.Password != "" {
		hash = s.hash(in.Password)
	}

	s.mu.Lock()
	acc, found := s.accounts[id]
	if found {
		acc.Name = strings.TrimSpace(in.Name)
		acc.Email = in.Email
		acc.Role = in.Role
		if hash != "" {
			acc.PasswordHash = hash
		}
	}
	var out models.User
	if found {
		out = acc.User
	}
	s.mu.Unlock()

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// DELETE /api/users/:id
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == c.GetInt64(ctxUserID) {
		c.JSON(http.StatusBadRequest, gin.H{"field": "id", "error": "you cannot delete your own account"})
		return
	}
	s.mu.Lock()
	_, found := s.accounts[id]
	delete(s.accounts, id)
	s.mu.Unlock()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

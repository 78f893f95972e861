// Package mockapi is an in-memory implementation of the fleet backend used
// for local development and end-to-end tests of the console.
package mockapi

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"fleetconsole/internal/domain/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type account struct {
	models.User
	PasswordHash string
}

type pendingRegistration struct {
	Name         string
	Email        string
	PasswordHash string
	Code         string
}

type Server struct {
	cfg    Config
	secret []byte

	mu         sync.RWMutex
	generation int
	accounts   map[int64]*account
	pending    map[string]pendingRegistration
	requests   map[int64]*models.TransportRequest
	drivers    map[int64]models.Driver
	cars       map[int64]models.Car
	trips      []models.Trip
	devices    map[int64][]string
	nextUserID int64
	nextCode   int

	hub *hub
}

func New(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "super-secret-key-change-me"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	s := &Server{
		cfg:      cfg,
		secret:   []byte(cfg.JWTSecret),
		accounts: map[int64]*account{},
		pending:  map[string]pendingRegistration{},
		requests: map[int64]*models.TransportRequest{},
		drivers:  map[int64]models.Driver{},
		cars:     map[int64]models.Car{},
		devices:  map[int64][]string{},
		nextCode: 100000,
		hub:      newHub(),
	}
	s.seed()
	return s
}

// Router builds the gin engine serving /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

		auth := api.Group("/auth")
		auth.POST("/login", s.login)
		auth.POST("/register", s.register)
		auth.POST("/confirm", s.confirm)
		auth.POST("/refresh", s.refresh)

		authed := api.Group("", s.requireAuth())
		authed.GET("/notifications/ws", s.notificationsSocket)
		authed.POST("/devices", s.registerDevice)

		requests := authed.Group("/requests")
		requests.GET("", s.listRequests)
		requests.GET("/:id", s.getRequest)
		requests.PATCH("/:id", RequireRoles("admin", "dispatcher"), s.updateRequest)

		authed.GET("/drivers", s.listDrivers)
		authed.GET("/cars", RequireRoles("admin", "dispatcher"), s.listCars)
		authed.GET("/trips", s.listTrips)

		users := authed.Group("/users", RequireRoles("admin"))
		users.GET("", s.listUsers)
		users.GET("/:id", s.getUser)
		users.POST("", s.createUser)
		users.PUT("/:id", s.updateUser)
		users.DELETE("/:id", s.deleteUser)

		authed.GET("/reports/:kind", RequireRoles("admin", "dispatcher"), s.report)
	}
	return r
}

func (s *Server) hash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		log.Fatalf("[MOCKAPI] gagal meng-hash password: %v", err)
	}
	return string(h)
}

func (s *Server) seed() {
	people := []struct {
		name, email, role, password string
	}{
		{"Ayu Admin", "admin@fleet.test", "admin", "admin12345"},
		{"Dina Dispatcher", "dispatcher@fleet.test", "dispatcher", "dispatch123"},
		{"Umar User", "user@fleet.test", "user", "user12345"},
		{"Budi Santoso", "driver@fleet.test", "driver", "driver123"},
	}
	for _, p := range people {
		s.nextUserID++
		s.accounts[s.nextUserID] = &account{
			User:         models.User{ID: s.nextUserID, Name: p.name, Email: p.email, Role: p.role},
			PasswordHash: s.hash(p.password),
		}
	}

	s.cars[1] = models.Car{ID: 1, Plate: "B 1234 FLT", Model: "Toyota Hiace", Seats: 12}
	s.cars[2] = models.Car{ID: 2, Plate: "B 5678 FLT", Model: "Isuzu Elf", Seats: 16}

	s.drivers[1] = models.Driver{ID: 1, Name: "Budi Santoso", Phone: "0811000001", CarID: 1}
	s.drivers[2] = models.Driver{ID: 2, Name: "Sari Wulandari", Phone: "0811000002", CarID: 2}
	s.drivers[3] = models.Driver{ID: 3, Name: "Agus Pratama", Phone: "0811000003"}

	s.requests[1] = &models.TransportRequest{
		ID: 1, Date: "2026-10-20", RequesterID: 3, RequesterName: "Umar User",
		Comments: "site visit",
		Routes: []models.Route{
			{ID: "r1", Goal: "site visit", Departure: "Head Office", Destination: "Plant A", Time: "08:00", UsageCount: 3, DriverName: "Budi Santoso"},
			{ID: "r2", Goal: "return", Departure: "Plant A", Destination: "Head Office", Time: "16:00", UsageCount: 3, DriverName: "Budi Santoso"},
		},
	}
	s.requests[2] = &models.TransportRequest{
		ID: 2, Date: "2026-10-20", RequesterID: 3, RequesterName: "Umar User",
		Comments: "airport pickup",
		Routes: []models.Route{
			{ID: "r3", Goal: "pickup", Departure: "Airport", Destination: "Hotel", Time: "10:30", UsageCount: 2},
		},
	}
	s.requests[3] = &models.TransportRequest{
		ID: 3, Date: "2026-10-21", RequesterID: 3, RequesterName: "Umar User",
		Status: models.StatusApproved, AssignedDriverID: 2,
		Routes: []models.Route{
			{ID: "r4", Goal: "delivery", Departure: "Warehouse", Destination: "Branch 2", Time: "09:00", UsageCount: 1, DriverName: "Sari Wulandari"},
		},
	}
	for _, r := range s.requests {
		r.StatusText = r.Status.String()
	}

	s.trips = []models.Trip{
		{ID: 1, RequestID: 3, DriverID: 2, RequesterID: 3, Date: "2026-10-01", Departure: "Warehouse", Destination: "Branch 2", DistanceKm: 18.4},
		{ID: 2, RequestID: 3, DriverID: 2, RequesterID: 3, Date: "2026-10-02", Departure: "Branch 2", Destination: "Warehouse", DistanceKm: 18.1},
		{ID: 3, RequestID: 1, DriverID: 1, RequesterID: 3, Date: "2026-09-28", Departure: "Head Office", Destination: "Plant A", DistanceKm: 42.7},
	}
}

// AddRequest stores r (tests use it to build scenarios).
func (s *Server) AddRequest(r models.TransportRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.StatusText = r.Status.String()
	s.requests[r.ID] = &r
}

// Request returns a copy of the stored request.
func (s *Server) Request(id int64) (models.TransportRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return models.TransportRequest{}, false
	}
	return cloneRequest(*r), true
}

// AddDriver stores d.
func (s *Server) AddDriver(d models.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = d
}

// PendingCode returns the confirmation code mailed to email.
func (s *Server) PendingCode(email string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[email]
	return p.Code, ok
}

// Devices lists device tokens registered by a user.
func (s *Server) Devices(userID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.devices[userID]...)
}

func (s *Server) newCode() string {
	s.nextCode++
	return fmt.Sprintf("%06d", s.nextCode)
}

func cloneRequest(r models.TransportRequest) models.TransportRequest {
	r.Routes = append([]models.Route(nil), r.Routes...)
	return r
}

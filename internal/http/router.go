package router

import (
	"log"
	stdhttp "net/http"

	"fleetconsole/internal/access"
	intconfig "fleetconsole/internal/config"
	h "fleetconsole/internal/http/handlers"
	"fleetconsole/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the console screens. Every route passes the access guard;
// screens not in table are public.
func NewRouter(env intconfig.Env, console *h.Console, table *access.Table) *gin.Engine {
	if table == nil {
		table = access.DefaultTable()
	}
	if console.Flashes == nil {
		console.Flashes = middleware.NewFlashes(env.SessionSecret)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger("/health"),
		gin.Recovery(),
		middleware.CORS(env.CORSAllowedOrigins),
		middleware.Guard(table, console.Sessions, console.Flashes),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/health", h.Health)
	r.GET("/db-check", h.DBCheck)
	r.GET("/routes", h.Routes)

	// Public screens
	r.GET("/", console.Landing)
	r.GET("/login", console.LoginView)
	r.POST("/login", console.Login)
	r.GET("/logout", console.Logout)
	r.POST("/logout", console.Logout)
	r.GET("/register", console.RegisterView)
	r.POST("/register", console.Register)
	r.GET("/confirm", console.ConfirmView)
	r.POST("/confirm", console.Confirm)
	r.GET("/forbidden", console.Forbidden)

	// Admin
	admin := r.Group("/admin")
	admin.GET("", console.AdminHome)
	admin.GET("/users", console.ListUsers)
	admin.GET("/users/:id", console.GetUser)
	admin.POST("/users", console.CreateUser)
	admin.PUT("/users/:id", console.UpdateUser)
	admin.DELETE("/users/:id", console.DeleteUser)
	admin.GET("/drivers", console.ListDrivers)
	admin.GET("/cars", console.ListCars)

	// Dispatcher
	dispatcher := r.Group("/dispatcher")
	dispatcher.GET("", console.DispatcherHome)
	dispatcher.GET("/requests", console.ListRequests)
	dispatcher.GET("/requests/:id", console.GetRequest)
	dispatcher.PUT("/requests/:id/selection", console.SetSelection)
	dispatcher.DELETE("/requests/:id/selection", console.ClearSelection)
	dispatcher.POST("/requests/:id/approve", console.Approve)
	dispatcher.POST("/requests/:id/reject", console.Reject)

	// User / driver
	r.GET("/user", console.UserHome)
	r.GET("/user/trips", console.UserTrips)
	r.GET("/driver", console.DriverHome)
	r.GET("/driver/trips", console.DriverTrips)

	r.GET("/reports/:kind", console.DownloadReport)

	r.GET("/addresses/:field", console.ListAddresses)
	r.POST("/addresses/:field", console.SaveAddress)
	r.DELETE("/addresses/:field", console.ClearAddresses)

	r.GET("/notifications", console.Notifications)

	h.SetRouter(r)
	return r
}

// Command mockapi serves an in-memory fleet backend for local development.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "fleetconsole/internal/config"
	"fleetconsole/internal/mockapi"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	srv := &http.Server{
		Addr:              env.MockAPIAddr,
		Handler:           mockapi.New(mockapi.Config{JWTSecret: env.JWTSecret}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("[MOCKAPI] berjalan di http://localhost%s/api", env.MockAPIAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[MOCKAPI] gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[MOCKAPI] shutdown gagal: %v", err)
	}
	log.Println("[MOCKAPI] berhenti.")
}

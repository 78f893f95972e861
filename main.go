package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetconsole/internal/app"
	intconfig "fleetconsole/internal/config"
	"fleetconsole/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("Gagal membuka storage: %v", err)
	}
	defer intconfig.CloseDB()

	dialect, err := storage.ParseDialect(env.StorageDriver)
	if err != nil {
		log.Fatalf("Storage driver tidak valid: %v", err)
	}
	store := storage.NewSQLStore(db, dialect)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("Gagal membuat schema storage: %v", err)
	}

	console, err := app.New(ctx, env, store)
	if err != nil {
		log.Fatalf("Gagal menyiapkan console: %v", err)
	}
	console.StartNotifications(ctx)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           console.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Console berjalan di http://localhost%s (backend %s)", env.AppAddr, env.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Mematikan server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown server gagal: %v", err)
	}
	stop()
	console.Close()

	log.Println("Server berhenti dengan aman.")
}

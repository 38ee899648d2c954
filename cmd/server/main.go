package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohanemg07-web/my-movie-recomendations/internal/api"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/config"
	"github.com/mohanemg07-web/my-movie-recomendations/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Println("Starting MovieAI API Server...")

	cfg := config.Load()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()
	log.Println("Database opened at", cfg.DatabasePath)

	seeded, err := st.SeedFromFile(context.Background(), cfg.SeedPath)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	if seeded > 0 {
		log.Printf("Seeded catalog with %d movies from %s", seeded, cfg.SeedPath)
	}

	handler := api.NewHandler(st, slog.Default())
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

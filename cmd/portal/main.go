package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SujalTiwari1/dtrepo/internal/api"
	"github.com/SujalTiwari1/dtrepo/internal/api/handlers"
	"github.com/SujalTiwari1/dtrepo/internal/api/middleware"
	"github.com/SujalTiwari1/dtrepo/internal/config"
	"github.com/SujalTiwari1/dtrepo/internal/core"
	"github.com/SujalTiwari1/dtrepo/internal/db"
	"github.com/SujalTiwari1/dtrepo/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	blobs, err := storage.NewLocal(cfg.Storage.Root, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	pool := core.SlotPool{
		MaxSlots:      cfg.Slots.MaxSlots,
		SlotsPerGroup: cfg.Slots.SlotsPerGroup,
	}
	service := core.NewService(pool, blobs, cfg.Slots.AssignRetries)
	sweeper := core.NewSweeper(blobs, cfg.Retention.Window, cfg.Retention.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	auth, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	jobHandler := handlers.NewJobHandler(service, sweeper)
	slotHandler := handlers.NewSlotHandler(service)
	router := api.NewRouter(auth, jobHandler, slotHandler, blobs.Root(), cfg.Storage.BaseURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on %s (%d slots in groups of %d)", server.Addr, pool.MaxSlots, pool.SlotsPerGroup)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

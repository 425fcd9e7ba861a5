package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmulondo/sema-core/internal/config"
	"github.com/dmulondo/sema-core/internal/domain"
	"github.com/dmulondo/sema-core/internal/language"
	"github.com/dmulondo/sema-core/internal/policy"
	"github.com/dmulondo/sema-core/internal/realtime"
	"github.com/dmulondo/sema-core/internal/service"
	"github.com/dmulondo/sema-core/internal/store"
	v1 "github.com/dmulondo/sema-core/internal/transport/http/v1"
	"github.com/dmulondo/sema-core/internal/triage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	log.Printf("Starting triage core...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)

	// Archive store
	archive, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize archive store: %v", err)
	}
	defer archive.Close()

	// Policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Event bus
	hub := realtime.NewHub(realtime.Options{
		HistoryLimit:  cfg.EventHistoryLimit,
		IdleTimeout:   cfg.ConnectionIdleTimeout,
		SweepInterval: cfg.SweepInterval,
	})
	defer hub.Close()

	// Classifiers
	glossaryPriority := make([]domain.Language, 0, len(cfg.GlossaryPriority))
	for _, lang := range cfg.GlossaryPriority {
		glossaryPriority = append(glossaryPriority, domain.Language(lang))
	}
	detector := language.NewDetector(glossaryPriority)
	classifier := triage.NewClassifier()

	// Service
	svc := service.New(detector, classifier, policyEngine, hub, archive)

	// HTTP server
	h := v1.NewHandler(svc, hub, archive)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Stopped")
}

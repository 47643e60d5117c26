package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookwell/internal/app"
	"bookwell/internal/auth"
	"bookwell/internal/config"
	"bookwell/internal/handlers"
	"bookwell/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := app.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := services.NewReminderWorker(engine.Dispatcher, cfg.DispatchSchedule)
	if err := worker.Start(ctx); err != nil {
		log.Fatal("Failed to start reminder worker:", err)
	}

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1"})
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(engine.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(cfg.JWTSecret))
	ops := router.Group("/api")
	ops.Use(auth.OpsMiddleware(cfg.JWTSecret))
	handlers.NewReminderHandler(engine.Lifecycle, engine.Dispatcher).Register(api, ops)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	worker.Stop()
}

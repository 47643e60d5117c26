// Package app wires the reminder engine's collaborators from configuration.
package app

import (
	"log"

	"bookwell/internal/config"
	"bookwell/internal/database"
	"bookwell/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// App holds the wired reminder engine
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      *database.ReminderStore
	Registry   *prometheus.Registry
	Scheduler  *services.ReminderScheduler
	Dispatcher *services.ReminderDispatcher
	Lifecycle  *services.ReminderLifecycle

	guard *services.RedisSendGuard
}

// New opens the database and builds the engine. The send guard is only used when
// REDIS_URL is set.
func New(cfg *config.Config) (*App, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(dsn)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, db)
}

// Wire builds the engine over an already opened database
func Wire(cfg *config.Config, db *gorm.DB) (*App, error) {
	a := &App{
		Config:   cfg,
		DB:       db,
		Store:    database.NewReminderStore(db),
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(a.Registry)

	var guard services.SendGuard
	if cfg.RedisURL != "" {
		g, err := services.NewRedisSendGuard(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.guard = g
		guard = g
		log.Printf("Reminder send guard enabled")
	}

	email := services.NewEmailService(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	a.Scheduler = services.NewReminderScheduler(a.Store, services.NewInAppService(db), metrics)
	a.Dispatcher = services.NewReminderDispatcher(a.Store, email, guard, metrics, services.DispatcherConfig{
		BatchSize:  cfg.BatchSize,
		ClaimLease: cfg.ClaimLease,
		StaleAfter: cfg.StaleAfter,
	})
	a.Lifecycle = services.NewReminderLifecycle(a.Scheduler, a.Store)
	return a, nil
}

// Close releases the redis and database connections
func (a *App) Close() {
	if a.guard != nil {
		if err := a.guard.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}

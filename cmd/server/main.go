package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/xiumachile/billpro/internal/config"
	"github.com/xiumachile/billpro/internal/db"
	"github.com/xiumachile/billpro/internal/logger"
	"github.com/xiumachile/billpro/internal/migrations"
	"github.com/xiumachile/billpro/internal/seed"
	"github.com/xiumachile/billpro/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Environment: cfg.Env})

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer database.Close()

	if err := migrations.Up(database.DB); err != nil {
		log.Fatal("failed to run database migrations", "error", err)
	}

	loc := cfg.Location()
	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Demo:          cfg.SeedDemo,
		Now:           time.Now(),
		Location:      loc,
	})
	if err != nil {
		log.Fatal("failed to seed database", "error", err)
	}
	log.Info("seed finished", "inserts", stats.Inserts, "skipped", stats.Skipped, "demo", cfg.SeedDemo)

	st := store.New(database, log)
	auth, err := newAuthService(st, cfg.JWTSecret)
	if err != nil {
		log.Fatal("failed to set up auth", "error", err)
	}

	srv := &server{
		auth:  auth,
		store: st,
		log:   log.WithComponent("http"),
		loc:   loc,
		now:   time.Now,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("listening", "addr", httpServer.Addr, "timezone", loc.String())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", "error", err)
	}
}

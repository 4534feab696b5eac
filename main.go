package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/admin"
	"github.com/sportscool/enroll-backend/internal/config"
	"github.com/sportscool/enroll-backend/internal/db"
	"github.com/sportscool/enroll-backend/internal/enroll"
	"github.com/sportscool/enroll-backend/internal/janitor"
	"github.com/sportscool/enroll-backend/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags)
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration: ", err)
	}

	gdb, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("database: ", err)
	}

	if err := enroll.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := admin.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := admin.Seed(gdb, cfg.AdminUser, cfg.AdminPassword); err != nil {
		log.Fatal("seed admin: ", err)
	}

	flash := web.NewFlashStore(nil, web.DefaultFlashTTL)
	loginLimiter := web.NewKeyedLimiter(cfg.LoginPerSecond, cfg.LoginBurst)

	tasks := cleanupTasks(cfg.InactiveMaxAge, flash, loginLimiter)
	// Eager sweep at startup: deactivate what expired while we were down and
	// purge every inactive token without waiting out the age threshold.
	janitor.RunOnce(gdb, startupTasks())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go janitor.Run(ctx, gdb, cfg.JanitorInterval, tasks)

	registry := web.NewRegistry()
	userHandlers := &enroll.Handlers{
		TokenTTL:     cfg.TokenTTL,
		MaxTokens:    cfg.MaxTokens,
		LoginLimiter: loginLimiter,
	}
	userHandlers.Register(registry)
	adminHandlers := &admin.Handlers{LoginLimiter: loginLimiter}
	adminHandlers.Register(registry)

	router := web.NewRouter(registry, web.RouterConfig{
		DB:           gdb,
		Flash:        flash,
		StaticPrefix: "/front/",
		StaticRoot:   cfg.StaticRoot,
	})

	log.Printf("server listening on %s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatal(err)
	}
}

func startupTasks() []janitor.Task {
	return []janitor.Task{
		{Name: "deactivate expired tokens", Run: enroll.DeactivateExpired},
		{Name: "deactivate expired admin tokens", Run: admin.DeactivateExpired},
		{Name: "purge inactive tokens", Run: enroll.PurgeInactive},
		{Name: "purge inactive admin tokens", Run: admin.PurgeInactive},
	}
}

func cleanupTasks(inactiveMaxAge time.Duration, flash *web.FlashStore, limiter *web.KeyedLimiter) []janitor.Task {
	return []janitor.Task{
		{Name: "deactivate expired tokens", Run: enroll.DeactivateExpired},
		{Name: "deactivate expired admin tokens", Run: admin.DeactivateExpired},
		{Name: "purge old inactive tokens", Run: func(db *gorm.DB) (int64, error) {
			return enroll.PurgeInactiveOlderThan(db, inactiveMaxAge)
		}},
		{Name: "purge inactive admin tokens", Run: admin.PurgeInactive},
		{Name: "sweep flash state", Run: func(*gorm.DB) (int64, error) {
			return int64(flash.Sweep()), nil
		}},
		{Name: "prune rate limiters", Run: func(*gorm.DB) (int64, error) {
			return int64(limiter.Prune(time.Hour)), nil
		}},
	}
}

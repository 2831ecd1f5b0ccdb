package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rpsarena/backend/internal/api"
	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/database"
	"github.com/rpsarena/backend/internal/migrations"
	"github.com/rpsarena/backend/internal/redis"
)

func main() {
	cfg := config.LoadMatchmaking()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[DB] Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Printf("[DB] Connected to PostgreSQL")

	if os.Getenv("MIGRATE_ON_START") == "true" {
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("[MIGRATE] Failed to run migrations: %v", err)
		}
	}

	rdb := connectRedis(cfg.RedisURL)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewMatchmakingServer(cfg, db, rdb)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("[MM] Failed to start: %v", err)
	}

	<-ctx.Done()
	log.Printf("[MM] Shutting down")
	server.Stop()
}

func connectRedis(url string) *goredis.Client {
	if url == "" {
		return nil
	}
	rdb, err := redis.Connect(url)
	if err != nil {
		log.Printf("[REDIS] Unavailable, continuing without mirror: %v", err)
		return nil
	}
	log.Printf("[REDIS] Connected")
	return rdb
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/rpsarena/backend/internal/api"
	"github.com/rpsarena/backend/internal/config"
)

func main() {
	cfg := config.LoadGameServer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewGameServer(cfg)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("[GS] Failed to start: %v", err)
	}

	<-ctx.Done()
	log.Printf("[GS] Shutting down")
	server.Stop()
}

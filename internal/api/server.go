package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// internalQueueCapacity bounds the socket→service channels.
const internalQueueCapacity = 100

const shutdownTimeout = 5 * time.Second

func newEngine(environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

func serveOn(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("[HTTP] %s server error: %v", name, err)
	}
}

func shutdownServer(srv *http.Server, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[HTTP] %s shutdown error: %v", name, err)
	}
}

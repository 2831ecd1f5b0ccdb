// Package api wires the services' HTTP surfaces and composes each service
// into a runnable server: listeners, gin engines, socket handlers, and the
// background workers behind them.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rpsarena/backend/internal/api/handlers"
	"github.com/rpsarena/backend/internal/game"
	"github.com/rpsarena/backend/internal/matchmaking"
)

// MatchmakingRoutes configures the matchmaking HTTP surface.
func MatchmakingRoutes(router *gin.Engine, svc *matchmaking.Service) {
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.HealthCheck("matchmaking"))
	router.GET("/queue/status", handlers.QueueStatus(svc))
	router.POST("/game/result", handlers.PostGameResult(svc.Store()))
}

// GameServerRoutes configures the game server HTTP surface.
func GameServerRoutes(router *gin.Engine, mgr *game.Manager) {
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.HealthCheck("gameserver"))
	router.POST("/create_game", handlers.CreateGame(mgr))
	router.GET("/game/:id", handlers.GetGame(mgr))
}

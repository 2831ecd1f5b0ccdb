package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rpsarena/backend/internal/game"
	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

// CreateGame spawns a new match for two players.
func CreateGame(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.CreateGameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.GamesToWin == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gamesToWin must be positive"})
			return
		}
		gameID, err := mgr.CreateGame(req.Players, req.GamesToWin)
		if errors.Is(err, game.ErrPlayerAssigned) {
			c.JSON(http.StatusConflict, gin.H{"error": "a player is already in a game"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
			return
		}
		c.JSON(http.StatusCreated, protocol.CreateGameResponse{GameID: gameID})
	}
}

// GetGame looks up an active match.
func GetGame(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, err := model.ParseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
			return
		}
		players, err := mgr.Lookup(gameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusOK, protocol.GetGameResponse{GameID: gameID, Players: players})
	}
}

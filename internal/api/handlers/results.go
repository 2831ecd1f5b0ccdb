package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rpsarena/backend/internal/matchmaking"
	"github.com/rpsarena/backend/internal/protocol"
)

// PostGameResult ingests the final score of a completed match.
func PostGameResult(store *matchmaking.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.GameResultRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := store.InsertMatchResult(c.Request.Context(), req.GameID, req.GamesWon[0], req.GamesWon[1]); err != nil {
			log.Printf("[DB] insert result for match %s failed: %v", req.GameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record result"})
			return
		}
		// ELO update hook goes here once ratings land.
		c.Status(http.StatusCreated)
	}
}

// QueueStatus reports the current matchmaking queue size.
func QueueStatus(svc *matchmaking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"queueSize": svc.QueueSize()})
	}
}

package protocol

import "github.com/rpsarena/backend/internal/model"

// CreateGameRequest is the matchmaking→game-server RPC body.
type CreateGameRequest struct {
	Players    [2]model.ID `json:"players"`
	GamesToWin uint8       `json:"gamesToWin"`
}

// CreateGameResponse carries the id of the freshly spawned match.
type CreateGameResponse struct {
	GameID model.ID `json:"gameId"`
}

// GetGameResponse is the game lookup body.
type GetGameResponse struct {
	GameID  model.ID    `json:"gameId"`
	Players [2]model.ID `json:"players"`
}

// GameResultRequest is posted to the matchmaking service when a match
// completes. GamesWon is in match player order.
type GameResultRequest struct {
	GameID   model.ID  `json:"gameId"`
	GamesWon [2]uint32 `json:"gamesWon"`
}

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rpsarena/backend/internal/model"
)

// GameRequest is a client→game-server request variant.
type GameRequest interface {
	RequestType() string
	gameRequest()
}

// JoinGame announces the player at their assigned match.
type JoinGame struct{}

// Move submits the player's hand for the current round.
type Move struct {
	Value model.Move `json:"value"`
}

func (JoinGame) RequestType() string { return "JoinGame" }
func (Move) RequestType() string     { return "Move" }

func (JoinGame) gameRequest() {}
func (Move) gameRequest()     {}

// GameResponse is a game-server→client response variant.
type GameResponse interface {
	Response
	gameResponse()
}

// GameJoined confirms the player is seated at the match.
type GameJoined struct{}

// PendingMove prompts both players for their moves.
type PendingMove struct{}

// RoundResult reports a decided round from the receiving player's
// perspective. Drawn rounds are not reported.
type RoundResult struct {
	Result    model.Outcome `json:"result"`
	OtherMove model.Move    `json:"otherMove"`
}

// MatchResult is the final frame of a match: the receiving player's outcome,
// their win count, and the number of rounds played including draws.
type MatchResult struct {
	Result model.Outcome `json:"result"`
	Wins   uint8         `json:"wins"`
	Total  uint8         `json:"total"`
}

func (GameJoined) ResponseType() string  { return "GameJoined" }
func (PendingMove) ResponseType() string { return "PendingMove" }
func (RoundResult) ResponseType() string { return "RoundResult" }
func (MatchResult) ResponseType() string { return "MatchResult" }

func (GameJoined) gameResponse()  {}
func (PendingMove) gameResponse() {}
func (RoundResult) gameResponse() {}
func (MatchResult) gameResponse() {}

// DecodeGameRequest parses one type-tagged game request body, rejecting
// moves outside the three known hands.
func DecodeGameRequest(data []byte) (GameRequest, error) {
	tag, err := variantTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "JoinGame":
		return JoinGame{}, nil
	case "Move":
		var v Move
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if !v.Value.Valid() {
			return nil, fmt.Errorf("unknown move %q", v.Value)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown game request type %q", tag)
	}
}

// EncodeGameRequest builds a type-tagged game request body. Client side.
func EncodeGameRequest(r GameRequest) ([]byte, error) {
	return tagged(r.RequestType(), r)
}

// NewGameFrame builds a full client→game-server frame.
func NewGameFrame(userID model.ID, r GameRequest) ([]byte, error) {
	body, err := EncodeGameRequest(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SocketRequest{UserID: &userID, Body: body})
}

// DecodeGameResponse parses a game-server→client frame. Client side.
func DecodeGameResponse(data []byte) (model.ID, GameResponse, error) {
	var env socketResponse
	if err := json.Unmarshal(data, &env); err != nil {
		return model.NilID, nil, err
	}
	var (
		body GameResponse
		err  error
	)
	switch env.Type {
	case "GameJoined":
		body = GameJoined{}
	case "PendingMove":
		body = PendingMove{}
	case "RoundResult":
		var v RoundResult
		err = json.Unmarshal(env.Body, &v)
		body = v
	case "MatchResult":
		var v MatchResult
		err = json.Unmarshal(env.Body, &v)
		body = v
	default:
		return model.NilID, nil, fmt.Errorf("unknown game response type %q", env.Type)
	}
	if err != nil {
		return model.NilID, nil, err
	}
	return env.UserID, body, nil
}

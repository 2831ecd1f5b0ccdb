package game

import (
	"log"
	"time"

	"github.com/rpsarena/backend/internal/protocol"
	"github.com/rpsarena/backend/internal/ws"
)

// NewGameSocket builds the session handler for the game socket. Every
// request is forwarded to the router carrying the session's push sink; all
// responses come back through that sink. MatchResult is the final frame of
// a match, so the session closes after delivering it.
func NewGameSocket(internal chan<- Request, pushTick time.Duration) *ws.Handler[protocol.GameRequest, protocol.GameResponse, Request] {
	return &ws.Handler[protocol.GameRequest, protocol.GameResponse, Request]{
		Name:         "game",
		PushInterval: pushTick,
		Internal:     internal,
		Decode:       protocol.DecodeGameRequest,
		Respond: func(conn *ws.Conn[protocol.GameResponse], req protocol.GameRequest, internal chan<- Request) (protocol.GameResponse, bool) {
			routed := Request{
				Player: Player{ID: conn.UserID, Push: conn.Push},
				Body:   req,
			}
			select {
			case internal <- routed:
			default:
				log.Printf("[WS:game] router queue full, dropping %s from %s", req.RequestType(), conn.UserID)
			}
			return nil, false
		},
		DropAfterSend: func(rs protocol.GameResponse) bool {
			_, ok := rs.(protocol.MatchResult)
			return ok
		},
	}
}

package matchmaking

import (
	"log"
	"net/netip"
	"time"

	"github.com/rpsarena/backend/internal/protocol"
	"github.com/rpsarena/backend/internal/ws"
)

// NewQueueSocket builds the session handler for the matchmaking socket.
// JoinQueue is forwarded to the matchmaking loop carrying the session's push
// sink; Ping and GetServer are answered in place. MatchFound and JoinServer
// are terminal: the session closes after delivering them.
func NewQueueSocket(internal chan<- Request, pushTick time.Duration) *ws.Handler[protocol.QueueRequest, protocol.QueueResponse, Request] {
	return &ws.Handler[protocol.QueueRequest, protocol.QueueResponse, Request]{
		Name:         "queue",
		PushInterval: pushTick,
		Internal:     internal,
		Decode:       protocol.DecodeQueueRequest,
		Respond:      respondToRequest,
		DropAfterSend: func(rs protocol.QueueResponse) bool {
			switch rs.(type) {
			case protocol.MatchFound, protocol.JoinServer:
				return true
			}
			return false
		},
		OnDisconnect: func(conn *ws.Conn[protocol.QueueResponse]) (Request, bool) {
			return LeaveQueue{UserID: conn.UserID}, true
		},
	}
}

func respondToRequest(conn *ws.Conn[protocol.QueueResponse], req protocol.QueueRequest, internal chan<- Request) (protocol.QueueResponse, bool) {
	switch req.(type) {
	case protocol.JoinQueue:
		select {
		case internal <- JoinQueue{Player: Player{ID: conn.UserID, Push: conn.Push}}:
		default:
			log.Printf("[WS:queue] matchmaking queue full, dropping JoinQueue from %s", conn.UserID)
		}
		return nil, false
	case protocol.Ping:
		return protocol.QueuePing{TimeElapsed: uint32(time.Since(conn.Started).Seconds())}, true
	case protocol.GetServer:
		// No server-side re-lookup yet; answer with the unspecified address.
		return protocol.JoinServer{ServerIP: netip.IPv6Unspecified()}, true
	default:
		return nil, false
	}
}

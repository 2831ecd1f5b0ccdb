package protocol

import (
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/rpsarena/backend/internal/model"
)

// QueueRequest is a client→matchmaking request variant.
type QueueRequest interface {
	RequestType() string
	queueRequest()
}

// JoinQueue asks to be enqueued for pairing.
type JoinQueue struct{}

// Ping is a keepalive while waiting in the queue.
type Ping struct{}

// GetServer re-requests the assigned game address after a disconnect.
type GetServer struct{}

func (JoinQueue) RequestType() string { return "JoinQueue" }
func (Ping) RequestType() string      { return "Ping" }
func (GetServer) RequestType() string { return "GetServer" }

func (JoinQueue) queueRequest() {}
func (Ping) queueRequest()      {}
func (GetServer) queueRequest() {}

// QueueResponse is a matchmaking→client response variant.
type QueueResponse interface {
	Response
	queueResponse()
}

// JoinedQueue confirms the user is enqueued.
type JoinedQueue struct{}

// QueuePing answers a Ping with the session age in whole seconds.
type QueuePing struct {
	TimeElapsed uint32 `json:"timeElapsed"`
}

// MatchFound tells the user where to play.
type MatchFound struct {
	GameID        model.ID `json:"gameId"`
	ServerAddress string   `json:"serverAddress"`
}

// JoinServer answers GetServer. Server-side re-lookup is not implemented;
// the address is always the IPv6 unspecified address.
type JoinServer struct {
	ServerIP netip.Addr `json:"serverIp"`
}

func (JoinedQueue) ResponseType() string { return "JoinedQueue" }
func (QueuePing) ResponseType() string   { return "QueuePing" }
func (MatchFound) ResponseType() string  { return "MatchFound" }
func (JoinServer) ResponseType() string  { return "JoinServer" }

func (JoinedQueue) queueResponse() {}
func (QueuePing) queueResponse()   {}
func (MatchFound) queueResponse()  {}
func (JoinServer) queueResponse()  {}

// DecodeQueueRequest parses one type-tagged queue request body.
func DecodeQueueRequest(data []byte) (QueueRequest, error) {
	tag, err := variantTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "JoinQueue":
		return JoinQueue{}, nil
	case "Ping":
		return Ping{}, nil
	case "GetServer":
		return GetServer{}, nil
	default:
		return nil, fmt.Errorf("unknown queue request type %q", tag)
	}
}

// EncodeQueueRequest builds a type-tagged queue request body. Client side.
func EncodeQueueRequest(r QueueRequest) ([]byte, error) {
	return tagged(r.RequestType(), r)
}

// NewQueueFrame builds a full client→matchmaking frame.
func NewQueueFrame(userID model.ID, r QueueRequest) ([]byte, error) {
	body, err := EncodeQueueRequest(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SocketRequest{UserID: &userID, Body: body})
}

// DecodeQueueResponse parses a matchmaking→client frame. Client side.
func DecodeQueueResponse(data []byte) (model.ID, QueueResponse, error) {
	var env socketResponse
	if err := json.Unmarshal(data, &env); err != nil {
		return model.NilID, nil, err
	}
	var (
		body QueueResponse
		err  error
	)
	switch env.Type {
	case "JoinedQueue":
		body = JoinedQueue{}
	case "QueuePing":
		var v QueuePing
		err = json.Unmarshal(env.Body, &v)
		body = v
	case "MatchFound":
		var v MatchFound
		err = json.Unmarshal(env.Body, &v)
		body = v
	case "JoinServer":
		var v JoinServer
		err = json.Unmarshal(env.Body, &v)
		body = v
	default:
		return model.NilID, nil, fmt.Errorf("unknown queue response type %q", env.Type)
	}
	if err != nil {
		return model.NilID, nil, err
	}
	return env.UserID, body, nil
}

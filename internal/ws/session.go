// Package ws is the duplex session framework shared by the queue socket and
// the game socket. A Handler is parameterized by the client request union,
// the server response union, and the internal message type its sessions feed
// into the owning service.
//
// Each accepted connection goes through an identify handshake, then serves
// two sources over one text-frame socket: inbound client frames, and
// outbound pushes drained from the session's bounded sink on a periodic
// tick. The push sink is the only way any in-process component can reach a
// live user; services never touch the socket itself.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

const (
	// pushCapacity bounds every per-session sink.
	pushCapacity = 100

	maxFrameSize = 65536
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	closeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn is the server-side handle for one identified session.
type Conn[RS protocol.Response] struct {
	UserID  model.ID
	Push    chan RS
	Started time.Time
}

// Handler accepts connections and runs one session per socket.
type Handler[RQ any, RS protocol.Response, IRQ any] struct {
	// Name prefixes every log line: "queue" or "game".
	Name string

	// PushInterval is the tick at which a session drains one message from
	// its push sink.
	PushInterval time.Duration

	// Internal is the bounded channel into the owning service.
	Internal chan<- IRQ

	// Decode parses one type-tagged request body.
	Decode func(data []byte) (RQ, error)

	// Respond handles a client request. It may reply immediately by
	// returning (response, true), or arrange a later push through the
	// sink it captured and return (zero, false).
	Respond func(conn *Conn[RS], req RQ, internal chan<- IRQ) (RS, bool)

	// DropAfterSend marks responses after which the session emits a Normal
	// close and exits. Nil keeps every session open.
	DropAfterSend func(rs RS) bool

	// OnDisconnect, when set, produces an internal message to emit as the
	// session tears down.
	OnDisconnect func(conn *Conn[RS]) (IRQ, bool)

	mu    sync.Mutex
	conns map[model.ID]*Conn[RS]
}

// Endpoint returns the gin handler that upgrades and serves connections
// until ctx is cancelled.
func (h *Handler[RQ, RS, IRQ]) Endpoint(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS:%s] upgrade error: %v", h.Name, err)
			return
		}
		h.session(ctx, sock)
	}
}

// Sessions returns the number of live identified sessions.
func (h *Handler[RQ, RS, IRQ]) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

type frame struct {
	kind int
	data []byte
}

func (h *Handler[RQ, RS, IRQ]) session(ctx context.Context, sock *websocket.Conn) {
	defer sock.Close()

	done := make(chan struct{})
	defer close(done)

	frames := make(chan frame)
	go readLoop(sock, frames, done)

	userID, ok := h.identify(ctx, frames)
	if !ok {
		return
	}

	conn := h.connection(userID)
	defer h.release(conn)
	defer h.disconnected(conn)

	log.Printf("[WS:%s] session open for user %s", h.Name, userID)
	ticker := time.NewTicker(h.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.writeClose(sock, "server shutting down")
			return

		case fr, ok := <-frames:
			if !ok {
				log.Printf("[WS:%s] socket closed for user %s", h.Name, userID)
				return
			}
			if fr.kind != websocket.TextMessage {
				log.Printf("[WS:%s] non-text frame from %s, dropping session", h.Name, userID)
				return
			}
			var env protocol.SocketRequest
			if err := json.Unmarshal(fr.data, &env); err != nil {
				log.Printf("[WS:%s] malformed frame from %s, dropping session: %v", h.Name, userID, err)
				return
			}
			req, err := h.Decode(env.Body)
			if err != nil {
				// Unknown variant: the frame is dropped, the session lives.
				log.Printf("[WS:%s] unhandled request from %s: %v", h.Name, userID, err)
				continue
			}
			rs, replied := h.Respond(conn, req, h.Internal)
			if !replied {
				continue
			}
			if !h.reply(sock, conn.UserID, rs) {
				return
			}
			if h.DropAfterSend != nil && h.DropAfterSend(rs) {
				h.writeClose(sock, "closing after terminal response")
				return
			}

		case <-ticker.C:
			select {
			case rs := <-conn.Push:
				if !h.reply(sock, conn.UserID, rs) {
					return
				}
				if h.DropAfterSend != nil && h.DropAfterSend(rs) {
					h.writeClose(sock, "closing after terminal response")
					return
				}
			default:
			}
		}
	}
}

// identify reads frames until one parses as {"userId"}. Malformed and
// non-text frames are ignored; a closed socket aborts the session.
func (h *Handler[RQ, RS, IRQ]) identify(ctx context.Context, frames <-chan frame) (model.ID, bool) {
	for {
		select {
		case <-ctx.Done():
			return model.NilID, false
		case fr, ok := <-frames:
			if !ok {
				log.Printf("[WS:%s] connection closed before identify", h.Name)
				return model.NilID, false
			}
			if fr.kind != websocket.TextMessage {
				log.Printf("[WS:%s] ignoring non-text frame during identify", h.Name)
				continue
			}
			userID, err := protocol.DecodeIdentify(fr.data)
			if err != nil {
				log.Printf("[WS:%s] ignoring bad identify frame: %v", h.Name, err)
				continue
			}
			return userID, true
		}
	}
}

// connection looks up or creates the session state for userID.
func (h *Handler[RQ, RS, IRQ]) connection(userID model.ID) *Conn[RS] {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns == nil {
		h.conns = make(map[model.ID]*Conn[RS])
	}
	if c, ok := h.conns[userID]; ok {
		return c
	}
	c := &Conn[RS]{
		UserID:  userID,
		Push:    make(chan RS, pushCapacity),
		Started: time.Now(),
	}
	h.conns[userID] = c
	return c
}

// release drops the registry entry, but only if it still belongs to this
// session.
func (h *Handler[RQ, RS, IRQ]) release(c *Conn[RS]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[c.UserID]; ok && cur == c {
		delete(h.conns, c.UserID)
	}
}

func (h *Handler[RQ, RS, IRQ]) disconnected(conn *Conn[RS]) {
	if h.OnDisconnect == nil {
		return
	}
	irq, ok := h.OnDisconnect(conn)
	if !ok {
		return
	}
	select {
	case h.Internal <- irq:
	default:
		log.Printf("[WS:%s] internal queue full, dropping disconnect notice for %s", h.Name, conn.UserID)
	}
}

// reply encodes and writes one response frame. A false return terminates
// the session: an encode failure is a programmer error and a write failure
// means the transport is gone. Neither crashes the process.
func (h *Handler[RQ, RS, IRQ]) reply(sock *websocket.Conn, userID model.ID, rs RS) bool {
	data, err := protocol.EncodeResponse(userID, rs)
	if err != nil {
		log.Printf("[WS:%s] encode %s failed: %v", h.Name, rs.ResponseType(), err)
		return false
	}
	sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := sock.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[WS:%s] write to %s failed: %v", h.Name, userID, err)
		return false
	}
	return true
}

func (h *Handler[RQ, RS, IRQ]) writeClose(sock *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout)); err != nil {
		log.Printf("[WS:%s] close frame write failed: %v", h.Name, err)
	}
}

// readLoop feeds raw frames from the socket into frames until the socket
// errors or the session exits.
func readLoop(sock *websocket.Conn, frames chan<- frame, done <-chan struct{}) {
	defer close(frames)

	sock.SetReadLimit(maxFrameSize)
	sock.SetReadDeadline(time.Now().Add(readTimeout))
	sock.SetPongHandler(func(string) error {
		sock.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		kind, data, err := sock.ReadMessage()
		if err != nil {
			return
		}
		sock.SetReadDeadline(time.Now().Add(readTimeout))
		select {
		case frames <- frame{kind: kind, data: data}:
		case <-done:
			return
		}
	}
}

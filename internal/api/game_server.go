package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/game"
	"github.com/rpsarena/backend/internal/protocol"
	"github.com/rpsarena/backend/internal/ws"
)

// GameServer bundles the game socket, the manager with its router, and the
// game HTTP surface into one runnable unit.
type GameServer struct {
	cfg      *config.GameServer
	manager  *game.Manager
	socket   *ws.Handler[protocol.GameRequest, protocol.GameResponse, game.Request]
	requests chan game.Request

	cancel    context.CancelFunc
	socketLn  net.Listener
	httpLn    net.Listener
	socketSrv *http.Server
	httpSrv   *http.Server
	wg        sync.WaitGroup
}

// NewGameServer builds the service.
func NewGameServer(cfg *config.GameServer) *GameServer {
	requests := make(chan game.Request, internalQueueCapacity)
	return &GameServer{
		cfg:      cfg,
		socket:   game.NewGameSocket(requests, cfg.PushTick()),
		requests: requests,
	}
}

// Start binds both listeners and launches the workers. It returns once the
// server is accepting connections; cancelling ctx begins shutdown and ends
// every running match actor.
func (s *GameServer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.manager = game.NewManager(ctx, game.NewReporter(s.cfg.MatchmakingURL))

	var err error
	s.socketLn, err = net.Listen("tcp", s.cfg.SocketAddr)
	if err != nil {
		return fmt.Errorf("bind game socket address: %w", err)
	}
	s.httpLn, err = net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		s.socketLn.Close()
		return fmt.Errorf("bind game http address: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.manager.RunRouter(ctx, s.requests)
	}()

	socketEngine := newEngine(s.cfg.Environment)
	socketEngine.GET("/", s.socket.Endpoint(ctx))
	s.socketSrv = &http.Server{Handler: socketEngine}

	httpEngine := newEngine(s.cfg.Environment)
	GameServerRoutes(httpEngine, s.manager)
	s.httpSrv = &http.Server{Handler: httpEngine}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		serveOn(s.socketSrv, s.socketLn, "game socket")
	}()
	go func() {
		defer s.wg.Done()
		serveOn(s.httpSrv, s.httpLn, "game api")
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		shutdownServer(s.socketSrv, "game socket")
		shutdownServer(s.httpSrv, "game api")
	}()

	log.Printf("[GS] listening (socket %s, http %s)", s.SocketAddr(), s.HTTPAddr())
	return nil
}

// Stop cancels the workers and waits for both servers to drain.
func (s *GameServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SocketAddr is the bound game socket address.
func (s *GameServer) SocketAddr() string {
	return s.socketLn.Addr().String()
}

// HTTPAddr is the bound API address.
func (s *GameServer) HTTPAddr() string {
	return s.httpLn.Addr().String()
}

// Manager exposes the game manager, mainly to tests.
func (s *GameServer) Manager() *game.Manager {
	return s.manager
}

package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/rpsarena/backend/internal/config"
	"github.com/rpsarena/backend/internal/matchmaking"
	"github.com/rpsarena/backend/internal/protocol"
	"github.com/rpsarena/backend/internal/ws"
)

// MatchmakingServer bundles the queue socket, the matchmaking loop, and the
// matchmaking HTTP surface into one runnable unit.
type MatchmakingServer struct {
	cfg      *config.Matchmaking
	svc      *matchmaking.Service
	socket   *ws.Handler[protocol.QueueRequest, protocol.QueueResponse, matchmaking.Request]
	requests chan matchmaking.Request

	cancel    context.CancelFunc
	socketLn  net.Listener
	httpLn    net.Listener
	socketSrv *http.Server
	httpSrv   *http.Server
	wg        sync.WaitGroup
}

// NewMatchmakingServer builds the service. db and rdb may be nil.
func NewMatchmakingServer(cfg *config.Matchmaking, db *sqlx.DB, rdb *redis.Client) *MatchmakingServer {
	requests := make(chan matchmaking.Request, internalQueueCapacity)
	return &MatchmakingServer{
		cfg:      cfg,
		svc:      matchmaking.NewService(cfg, db, rdb),
		socket:   matchmaking.NewQueueSocket(requests, cfg.PushTick()),
		requests: requests,
	}
}

// Start binds both listeners and launches the workers. It returns once the
// server is accepting connections; cancelling ctx begins shutdown.
func (s *MatchmakingServer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	var err error
	s.socketLn, err = net.Listen("tcp", s.cfg.SocketAddr)
	if err != nil {
		return fmt.Errorf("bind matchmaking socket address: %w", err)
	}
	s.httpLn, err = net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		s.socketLn.Close()
		return fmt.Errorf("bind matchmaking http address: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.svc.Run(ctx, s.requests)
	}()

	socketEngine := newEngine(s.cfg.Environment)
	socketEngine.GET("/", s.socket.Endpoint(ctx))
	s.socketSrv = &http.Server{Handler: socketEngine}

	httpEngine := newEngine(s.cfg.Environment)
	MatchmakingRoutes(httpEngine, s.svc)
	s.httpSrv = &http.Server{Handler: httpEngine}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		serveOn(s.socketSrv, s.socketLn, "matchmaking socket")
	}()
	go func() {
		defer s.wg.Done()
		serveOn(s.httpSrv, s.httpLn, "matchmaking api")
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		shutdownServer(s.socketSrv, "matchmaking socket")
		shutdownServer(s.httpSrv, "matchmaking api")
	}()

	log.Printf("[MM] listening (socket %s, http %s)", s.SocketAddr(), s.HTTPAddr())
	return nil
}

// Stop cancels the workers and waits for both servers to drain.
func (s *MatchmakingServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SocketAddr is the bound queue socket address.
func (s *MatchmakingServer) SocketAddr() string {
	return s.socketLn.Addr().String()
}

// HTTPAddr is the bound API address.
func (s *MatchmakingServer) HTTPAddr() string {
	return s.httpLn.Addr().String()
}

// Service exposes the matchmaking loop, mainly to tests.
func (s *MatchmakingServer) Service() *matchmaking.Service {
	return s.svc
}

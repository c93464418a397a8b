package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"nhooyr.io/websocket"

	"skirmish/network"
	"skirmish/utils"
	"skirmish/world"
)

type subscriber struct {
	messages chan []byte
	playerID string
	c        *websocket.Conn
}

// event is an inbound envelope, or a departure when env is nil.
type event struct {
	env *network.Envelope
	sub *subscriber
}

// Server relays envelopes between clients and keeps just enough state to
// answer joins with the current roster. It does not judge hits.
type Server struct {
	cfg    utils.ServerConfig
	logger *slog.Logger

	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex
	serveMux    http.ServeMux
	events      chan *event
	stopped     chan struct{}

	// Owned by the tick loop.
	players *world.Roster
	joined  map[*subscriber]bool
	tick    int64
}

func NewServer(cfg utils.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
		events:      make(chan *event, 1024),
		stopped:     make(chan struct{}),
		players:     world.NewRoster(),
		joined:      make(map[*subscriber]bool),
	}

	s.serveMux.HandleFunc("/", s.onConnection)
	s.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	s.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s
}

// Loop runs the simulation ticks until ctx is done. It must run exactly once.
func (s *Server) Loop(ctx context.Context) {
	defer close(s.stopped)
	tick := time.NewTicker(s.cfg.TickInterval())
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			s.onTick(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) onTick(now time.Time) {
	s.tick++
	for len(s.events) > 0 {
		e := <-s.events
		if e.env == nil {
			s.onLeave(e.sub)
			continue
		}
		s.onEvent(now, e)
	}

	if s.cfg.BroadcastEvery > 0 && s.tick%int64(s.cfg.BroadcastEvery) == 0 && s.players.Len() > 0 {
		s.publish(nil, &network.GameTick{Tick: s.tick, Players: s.snapshots()})
	}
}

func (s *Server) onEvent(now time.Time, e *event) {
	switch msg := e.env.Message.(type) {
	case *network.Join:
		s.onJoin(e.sub, msg)
		return
	}

	if !s.joined[e.sub] {
		s.logger.Debug("ignoring message before join", "type", e.env.Type)
		return
	}
	p := s.players.Get(e.sub.playerID)
	if p == nil {
		return
	}

	switch msg := e.env.Message.(type) {
	case *network.Update:
		position, rotation, velocity, health := msg.Position, msg.Rotation, msg.Velocity, msg.Health
		p.ApplySnapshot(world.Snapshot{Position: &position, Rotation: &rotation, Velocity: &velocity, Health: &health})
		s.publish(e.sub, &network.PlayerUpdate{Player: p.Serialize()})

	case *network.Shoot:
		p.Position, p.Rotation = msg.Position, msg.Rotation
		if !p.TryShoot(now) {
			return
		}
		s.publish(e.sub, &network.PlayerShot{PlayerID: p.ID, Position: msg.Position, Rotation: msg.Rotation})

	case *network.Respawn:
		position := msg.Position
		p.Respawn(&position)
		s.publish(e.sub, &network.PlayerRespawned{PlayerID: p.ID, Position: &position})

	default:
		s.logger.Debug("ignoring server-bound message", "type", e.env.Type, "player", p.ID)
	}
}

func (s *Server) onJoin(sub *subscriber, msg *network.Join) {
	if s.joined[sub] {
		return
	}
	if s.cfg.MaxPlayers > 0 && s.players.Len() >= s.cfg.MaxPlayers {
		s.logger.Warn("server full, refusing join", "name", msg.Name)
		sub.c.Close(websocket.StatusTryAgainLater, "server full")
		return
	}

	name := msg.Name
	if name == "" {
		name = "Player"
	}
	p := world.NewPlayer(sub.playerID, name, world.Remote)
	p.Position = world.RandomSpawn()
	s.players.Add(p)
	s.joined[sub] = true
	s.logger.Info("player joined", "id", p.ID, "name", name, "players", s.players.Len())

	s.send(sub, &network.PlayerJoined{YourID: p.ID, Player: p.Serialize()})
	s.send(sub, &network.GameState{Players: s.snapshots()})
	s.publish(sub, &network.PlayerJoined{Player: p.Serialize()})
}

func (s *Server) onLeave(sub *subscriber) {
	if !s.joined[sub] {
		return
	}
	delete(s.joined, sub)
	s.players.Remove(sub.playerID)
	s.logger.Info("player left", "id", sub.playerID, "players", s.players.Len())
	s.publish(nil, &network.PlayerLeft{PlayerID: sub.playerID})
}

func (s *Server) snapshots() map[string]world.Snapshot {
	out := make(map[string]world.Snapshot, s.players.Len())
	s.players.ForEach(func(ID string, p *world.Player) {
		out[ID] = p.Serialize()
	})
	return out
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

func (s *Server) onConnection(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Warn("accept websocket", "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	if err := s.handleConnection(r.Context(), c); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("connection closed", "error", err)
	}
}

func (s *Server) handleConnection(ctx context.Context, c *websocket.Conn) error {
	sub := &subscriber{
		messages: make(chan []byte, 1024),
		playerID: ksuid.New().String(),
		c:        c,
	}
	s.addSubscriber(sub)
	defer s.removeSubscriber(sub)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		defer s.enqueue(context.Background(), &event{sub: sub})
		for {
			_, frame, err := c.Read(ctx)
			if err != nil {
				return
			}
			env, err := network.Decode(frame)
			if err != nil {
				s.logger.Warn("dropping malformed frame", "player", sub.playerID, "error", err)
				continue
			}
			if !s.enqueue(ctx, &event{env: &env, sub: sub}) {
				return
			}
		}
	}()

	for {
		select {
		case frame := <-sub.messages:
			if err := c.Write(ctx, websocket.MessageText, frame); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) enqueue(ctx context.Context, e *event) bool {
	select {
	case s.events <- e:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopped:
		return false
	}
}

// send queues msg for one subscriber.
func (s *Server) send(sub *subscriber, msg network.Message) {
	frame, err := network.Encode(msg)
	if err != nil {
		s.logger.Error("encode", "type", msg.Type(), "error", err)
		return
	}
	s.deliver(sub, frame)
}

// publish queues msg for every joined subscriber except skip.
func (s *Server) publish(skip *subscriber, msg network.Message) {
	frame, err := network.Encode(msg)
	if err != nil {
		s.logger.Error("encode", "type", msg.Type(), "error", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		if sub == skip || !s.joined[sub] {
			continue
		}
		s.deliver(sub, frame)
	}
}

func (s *Server) deliver(sub *subscriber, frame []byte) {
	select {
	case sub.messages <- frame:
	default:
		sub.c.Close(websocket.StatusPolicyViolation, "write would block")
	}
}

// Run serves on cfg.Address until ctx is done.
func Run(ctx context.Context, cfg utils.ServerConfig, logger *slog.Logger) error {
	l, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	return Serve(ctx, l, cfg, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, l net.Listener, cfg utils.ServerConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("listening", "address", "ws://"+l.Addr().String())

	server := NewServer(cfg, logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go server.Loop(ctx)

	s := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(l)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down", "reason", context.Cause(ctx))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return s.Shutdown(shutdownCtx)
}

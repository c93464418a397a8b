package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"skirmish/network"
	"skirmish/world"
)

const (
	DefaultUpdateInterval = 50 * time.Millisecond
	DefaultBlendFactor    = 0.3
	DefaultRespawnDelay   = 3 * time.Second
)

// Link is the part of the connection manager the controller drives.
type Link interface {
	State() network.State
	Poll() int
	SendUpdate(position, rotation, velocity world.Vector3, health float64) bool
	SendShoot(position, rotation world.Vector3) bool
	SendRespawn(position world.Vector3) bool
	Disconnect()
}

// offlineLink stands in when there is no server. Every send fails.
type offlineLink struct{}

func (offlineLink) State() network.State                             { return network.Disconnected }
func (offlineLink) Poll() int                                        { return 0 }
func (offlineLink) SendUpdate(_, _, _ world.Vector3, _ float64) bool { return false }
func (offlineLink) SendShoot(_, _ world.Vector3) bool                { return false }
func (offlineLink) SendRespawn(world.Vector3) bool                   { return false }
func (offlineLink) Disconnect()                                      {}

type Options struct {
	// Name is the local player's display name, sent on join.
	Name string
	// UpdateInterval is the minimum time between outbound updates.
	UpdateInterval time.Duration
	// BlendFactor is how far remote players move towards each tick broadcast.
	BlendFactor  float64
	RespawnDelay time.Duration
	// Language orders names on the roster and scoreboard.
	Language language.Tag
	Logger   *slog.Logger
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "Player"
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = DefaultUpdateInterval
	}
	if o.BlendFactor <= 0 || o.BlendFactor > 1 {
		o.BlendFactor = DefaultBlendFactor
	}
	if o.RespawnDelay <= 0 {
		o.RespawnDelay = DefaultRespawnDelay
	}
	if o.Language == language.Und {
		o.Language = language.English
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller owns the roster and reconciles it with the server. All of its
// methods, and the handlers Attach installs, must run on one goroutine:
// the one calling Tick.
type Controller struct {
	opts   Options
	logger *slog.Logger
	link   Link
	sink   Sink

	local      *world.Player
	players    *world.Roster
	lastUpdate time.Time
	respawn    countdown
	collator   *collate.Collator
}

// NewController creates the local player under a placeholder id. A nil link
// plays offline and a nil sink discards cues.
func NewController(link Link, sink Sink, opts Options) *Controller {
	opts = opts.withDefaults()
	if link == nil {
		link = offlineLink{}
	}
	if sink == nil {
		sink = discardSink{}
	}
	c := &Controller{
		opts:     opts,
		logger:   opts.Logger,
		link:     link,
		sink:     sink,
		local:    world.NewPlayer("local-"+ksuid.New().String(), opts.Name, world.Local),
		players:  world.NewRoster(),
		collator: collate.New(opts.Language),
	}
	c.players.Add(c.local)
	return c
}

// Attach subscribes the inbound handlers. The returned func detaches them.
func (c *Controller) Attach(d *network.Dispatcher) func() {
	offs := []func(){
		network.Subscribe(d, c.onPlayerJoined),
		network.Subscribe(d, c.onPlayerLeft),
		network.Subscribe(d, c.onPlayerUpdate),
		network.Subscribe(d, c.onGameTick),
		network.Subscribe(d, c.onPlayerShot),
		network.Subscribe(d, c.onPlayerHit),
		network.Subscribe(d, c.onPlayerDied),
		network.Subscribe(d, c.onPlayerRespawned),
		network.Subscribe(d, c.onGameState),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Tick advances one frame: drain the network, fire a due respawn, step the
// local player and push an update if the cadence allows.
func (c *Controller) Tick(dt float64, in world.ControlInput) {
	c.link.Poll()
	now := c.opts.Now()

	if c.respawn.Due(now) {
		c.respawnLocal(now)
	}
	if err := c.local.Step(dt, in); err != nil {
		c.logger.Error("step local player", "error", err)
	}

	if c.link.State() != network.Connected || now.Sub(c.lastUpdate) < c.opts.UpdateInterval {
		return
	}
	c.link.SendUpdate(c.local.Position, c.local.Rotation, c.local.Velocity, c.local.Health)
	c.lastUpdate = now
}

// Shoot fires if the local player is alive and off cooldown. The shot is
// shown locally even when it cannot be sent.
func (c *Controller) Shoot() bool {
	now := c.opts.Now()
	if !c.local.TryShoot(now) {
		return false
	}
	c.sink.Effect(Effect{Kind: EffectMuzzleFlash, PlayerID: c.local.ID, Position: c.local.Position, At: now})
	c.link.SendShoot(c.local.Position, c.local.Rotation)
	return true
}

// Disconnect drops the connection and everything learned from it.
func (c *Controller) Disconnect() {
	c.respawn.Cancel()
	c.link.Disconnect()
	c.dropPeers()
}

// HandleStatus reacts to connection lifecycle changes.
func (c *Controller) HandleStatus(s network.State) {
	now := c.opts.Now()
	switch s {
	case network.Connected:
		c.sink.Notify(Notification{Kind: NoticeInfo, Text: "Connected", At: now})
	case network.Reconnecting:
		c.sink.Notify(Notification{Kind: NoticeError, Text: "Connection lost, reconnecting...", At: now})
		c.dropPeers()
	case network.Disconnected:
		c.sink.Notify(Notification{Kind: NoticeError, Text: "Disconnected", At: now})
		c.dropPeers()
	}
}

func (c *Controller) dropPeers() {
	c.players.Reset()
	c.players.Add(c.local)
}

func (c *Controller) respawnLocal(now time.Time) {
	c.respawn.Cancel()
	c.local.Respawn(nil)
	c.sink.Effect(Effect{Kind: EffectRespawn, PlayerID: c.local.ID, Position: c.local.Position, At: now})
	if c.link.State() == network.Connected {
		c.link.SendRespawn(c.local.Position)
	}
	c.logger.Info("respawned", "position", c.local.Position)
}

func (c *Controller) localDied(now time.Time) {
	c.sink.Effect(Effect{Kind: EffectDeathScreen, PlayerID: c.local.ID, Position: c.local.Position, At: now})
	c.respawn.Start(now, c.opts.RespawnDelay)
}

// peer returns the remote entry for ID, or nil.
func (c *Controller) peer(ID string) *world.Player {
	if ID == c.local.ID {
		return nil
	}
	return c.players.Get(ID)
}

func (c *Controller) displayName(ID string) string {
	if p := c.players.Get(ID); p != nil && p.Name != "" {
		return p.Name
	}
	return ID
}

func (c *Controller) onPlayerJoined(msg *network.PlayerJoined) {
	now := c.opts.Now()
	if msg.YourID != "" {
		c.adoptID(msg.YourID, msg.Player.Name)
		c.sink.Notify(Notification{Kind: NoticeInfo, Text: fmt.Sprintf("Joined as %s", c.local.Name), At: now})
		return
	}

	snapshot := msg.Player
	if snapshot.ID == "" || snapshot.ID == c.local.ID {
		return
	}
	p := world.NewRemotePlayer(snapshot)
	c.players.Add(p)
	c.sink.Notify(Notification{Kind: NoticeJoin, Text: fmt.Sprintf("%s joined", c.displayName(p.ID)), At: now})
	c.logger.Debug("peer joined", "id", p.ID, "name", p.Name)
}

// adoptID re-keys the local player to the id and name the server assigned.
// An empty name keeps the current one.
func (c *Controller) adoptID(ID, name string) {
	c.local.Rekey(c.local.ID, name)
	if ID == c.local.ID {
		return
	}
	// An entry already under the new id can only be a stale copy of ourselves.
	c.players.Remove(ID)
	oldID := c.local.ID
	if _, ok := c.players.Rekey(oldID, ID); !ok {
		c.local.Rekey(ID, name)
		c.players.Add(c.local)
	}
	c.logger.Info("joined", "id", ID, "placeholder", oldID)
}

func (c *Controller) onPlayerLeft(msg *network.PlayerLeft) {
	p := c.peer(msg.PlayerID)
	if p == nil {
		return
	}
	c.players.Remove(p.ID)
	c.sink.Notify(Notification{Kind: NoticeLeave, Text: fmt.Sprintf("%s left", displayOr(p.Name, p.ID)), At: c.opts.Now()})
}

func (c *Controller) onPlayerUpdate(msg *network.PlayerUpdate) {
	if p := c.peer(msg.Player.ID); p != nil {
		p.ApplySnapshot(msg.Player)
	}
}

func (c *Controller) onGameTick(msg *network.GameTick) {
	for ID, snapshot := range msg.Players {
		p := c.peer(ID)
		if p == nil {
			continue
		}
		if err := p.SmoothTowards(snapshot, c.opts.BlendFactor); err != nil {
			c.logger.Warn("smooth peer", "id", ID, "error", err)
		}
	}
}

func (c *Controller) onPlayerShot(msg *network.PlayerShot) {
	if msg.PlayerID == c.local.ID {
		return
	}
	c.sink.Effect(Effect{Kind: EffectMuzzleFlash, PlayerID: msg.PlayerID, Position: msg.Position, At: c.opts.Now()})
}

func (c *Controller) onPlayerHit(msg *network.PlayerHit) {
	now := c.opts.Now()
	if msg.PlayerID == c.local.ID {
		killed := c.local.ApplyDamage(msg.Damage)
		c.sink.Effect(Effect{Kind: EffectDamageFlash, PlayerID: c.local.ID, Position: msg.Position, At: now})
		if killed {
			c.localDied(now)
		}
		return
	}
	c.sink.Effect(Effect{Kind: EffectHitMarker, PlayerID: msg.PlayerID, Position: msg.Position, At: now})
	if msg.ShooterID == c.local.ID {
		c.sink.Effect(Effect{Kind: EffectHitConfirm, PlayerID: msg.PlayerID, Position: msg.Position, At: now})
	}
}

func (c *Controller) onPlayerDied(msg *network.PlayerDied) {
	now := c.opts.Now()
	if victim := c.players.Get(msg.PlayerID); victim != nil && victim.Die() && victim.IsLocal() {
		c.localDied(now)
	}
	if msg.KillerID == "" {
		return
	}
	if killer := c.players.Get(msg.KillerID); killer != nil {
		killer.AddKill()
	}
	text := fmt.Sprintf("%s eliminated %s", c.displayName(msg.KillerID), c.displayName(msg.PlayerID))
	c.sink.Notify(Notification{Kind: NoticeKill, Text: text, At: now})
}

func (c *Controller) onPlayerRespawned(msg *network.PlayerRespawned) {
	if p := c.peer(msg.PlayerID); p != nil {
		p.Respawn(msg.Position)
	}
}

// onGameState replaces the roster with the server's. The local player keeps
// its object when the server lists it, taking the server's fields.
func (c *Controller) onGameState(msg *network.GameState) {
	c.respawn.Cancel()
	c.players.Reset()
	for ID, snapshot := range msg.Players {
		if ID == c.local.ID {
			c.local.ApplySnapshot(snapshot)
			c.players.Add(c.local)
			continue
		}
		if snapshot.ID == "" {
			snapshot.ID = ID
		}
		p := world.NewRemotePlayer(snapshot)
		p.ID = ID
		c.players.Add(p)
	}
	if !c.local.Alive {
		c.respawn.Start(c.opts.Now(), c.opts.RespawnDelay)
	}
	c.logger.Debug("game state", "players", c.players.Len())
}

func displayOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skirmish/network"
	"skirmish/utils"
	"skirmish/world"
)

type client struct {
	t        *testing.T
	m        *network.Manager
	received []network.Envelope
}

func dial(t *testing.T, endpoint, name string) *client {
	t.Helper()
	c := &client{t: t, m: network.NewManager(network.Options{Logger: utils.DiscardLogger()})}
	c.m.OnAny(func(env network.Envelope) { c.received = append(c.received, env) })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.m.Connect(ctx, endpoint, name); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.m.Disconnect)
	return c
}

// await polls until a received envelope satisfies match and returns it.
func (c *client) await(what string, match func(network.Envelope) bool) network.Envelope {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.m.Poll()
		for _, env := range c.received {
			if match(env) {
				return env
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	c.t.Fatalf("timed out waiting for %s; received %d envelopes", what, len(c.received))
	return network.Envelope{}
}

func ofType(t network.MessageType) func(network.Envelope) bool {
	return func(env network.Envelope) bool { return env.Type == t }
}

func startServer(t *testing.T, cfg utils.ServerConfig) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(cfg, utils.DiscardLogger())
	go srv.Loop(ctx)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func testConfig() utils.ServerConfig {
	cfg := utils.Default().Server
	cfg.TickRate = 200
	cfg.BroadcastEvery = 5
	return cfg
}

func TestJoinAndRelay(t *testing.T) {
	endpoint := startServer(t, testConfig())

	alice := dial(t, endpoint, "Alice")
	confirm := alice.await("alice's join confirmation", func(env network.Envelope) bool {
		m, ok := env.Message.(*network.PlayerJoined)
		return ok && m.YourID != ""
	}).Message.(*network.PlayerJoined)
	if confirm.Player.ID != confirm.YourID || confirm.Player.Name != "Alice" {
		t.Fatalf("confirmation = %+v", confirm)
	}
	if p := confirm.Player.Position; p == nil || !world.InBounds(*p) {
		t.Fatalf("spawn position = %v", p)
	}
	aliceID := confirm.YourID

	bob := dial(t, endpoint, "Bob")
	state := bob.await("bob's game state", ofType(network.TypeGameState)).Message.(*network.GameState)
	if len(state.Players) != 2 {
		t.Fatalf("game_state players = %v, want alice and bob", state.Players)
	}
	if state.Players[aliceID].Name != "Alice" {
		t.Fatalf("alice in game_state = %+v", state.Players[aliceID])
	}

	peer := alice.await("bob joining", func(env network.Envelope) bool {
		m, ok := env.Message.(*network.PlayerJoined)
		return ok && m.YourID == "" && m.Player.Name == "Bob"
	}).Message.(*network.PlayerJoined)
	bobID := peer.Player.ID

	bob.m.SendUpdate(world.Vector3{X: 3, Y: world.GroundHeight, Z: 4}, world.Vector3{Y: 1}, world.Vector3{}, 80)
	update := alice.await("bob's update", ofType(network.TypePlayerUpdate)).Message.(*network.PlayerUpdate)
	if update.Player.ID != bobID || update.Player.Position.X != 3 || *update.Player.Health != 80 {
		t.Fatalf("player_update = %+v", update.Player)
	}

	bob.m.SendShoot(world.Vector3{X: 3}, world.Vector3{Y: 1})
	shot := alice.await("bob's shot", ofType(network.TypePlayerShot)).Message.(*network.PlayerShot)
	if shot.PlayerID != bobID {
		t.Fatalf("player_shot = %+v", shot)
	}

	at := world.Vector3{X: -2, Y: world.GroundHeight, Z: 7}
	bob.m.SendRespawn(at)
	respawned := alice.await("bob's respawn", ofType(network.TypePlayerRespawned)).Message.(*network.PlayerRespawned)
	if respawned.PlayerID != bobID || respawned.Position == nil || *respawned.Position != at {
		t.Fatalf("player_respawned = %+v", respawned)
	}

	tick := alice.await("a tick broadcast", func(env network.Envelope) bool {
		m, ok := env.Message.(*network.GameTick)
		return ok && len(m.Players) == 2
	}).Message.(*network.GameTick)
	if tick.Tick%5 != 0 {
		t.Fatalf("tick %d is not a multiple of the broadcast interval", tick.Tick)
	}

	bob.m.Disconnect()
	left := alice.await("bob leaving", ofType(network.TypePlayerLeft)).Message.(*network.PlayerLeft)
	if left.PlayerID != bobID {
		t.Fatalf("player_left = %+v", left)
	}

	for _, env := range bob.received {
		if m, ok := env.Message.(*network.PlayerShot); ok && m.PlayerID == bobID {
			t.Fatal("shooter received its own shot back")
		}
	}
}

func TestServerFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 1
	endpoint := startServer(t, cfg)

	alice := dial(t, endpoint, "Alice")
	alice.await("alice's game state", ofType(network.TypeGameState))

	bob := dial(t, endpoint, "Bob")
	deadline := time.Now().Add(5 * time.Second)
	for bob.m.State() == network.Connected {
		if time.Now().After(deadline) {
			t.Fatal("second player was not refused")
		}
		time.Sleep(5 * time.Millisecond)
	}
	bob.m.Disconnect()
	bob.m.Poll()
	for _, env := range bob.received {
		if env.Type == network.TypeGameState {
			t.Fatal("refused player received the game state")
		}
	}
}

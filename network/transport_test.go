package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"skirmish/utils"
)

// echoJoin accepts one client, reads its join and answers with a
// confirmation followed by a roster.
func echoJoin(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, frame, err := c.Read(ctx)
		if err != nil {
			return
		}
		env, err := Decode(frame)
		if err != nil || env.Type != TypeJoin {
			t.Errorf("first frame = %s, %v", frame, err)
			return
		}
		name := env.Message.(*Join).Name
		reply := `{"type":"player_joined","yourId":"srv-1","player":{"id":"srv-1","name":"` + name + `"}}`
		if err := c.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return
		}
		c.Write(ctx, websocket.MessageText, []byte(`{"type":"game_state","players":{"srv-1":{"id":"srv-1","name":"`+name+`"}}}`))
		// Hold the connection until the client leaves.
		c.Read(ctx)
	})
}

func TestWebsocketRoundTrip(t *testing.T) {
	srv := httptest.NewServer(echoJoin(t))
	defer srv.Close()

	m := NewManager(Options{Logger: utils.DiscardLogger()})
	var joined *PlayerJoined
	var state *GameState
	Subscribe(m.Dispatcher, func(msg *PlayerJoined) { joined = msg })
	Subscribe(m.Dispatcher, func(msg *GameState) { state = msg })

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, endpoint, "Alice"); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()

	waitFor(t, "server replies", func() bool {
		m.Poll()
		return joined != nil && state != nil
	})
	if joined.YourID != "srv-1" || joined.Player.Name != "Alice" {
		t.Fatalf("player_joined = %+v", joined)
	}
	if len(state.Players) != 1 {
		t.Fatalf("game_state players = %v", state.Players)
	}
}

func TestWebsocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	m := NewManager(Options{Logger: utils.DiscardLogger(), DialTimeout: time.Second})
	if err := m.Connect(context.Background(), endpoint, "Alice"); err == nil {
		t.Fatal("expected dial to a closed server to fail")
	}
	if m.State() != Disconnected {
		t.Fatalf("state = %v, want Disconnected", m.State())
	}
}

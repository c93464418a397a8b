package network

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"
)

// Transport is one open connection carrying whole text frames.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, frame []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Transport, error)
}

const readLimit = 1 << 20

// WebsocketDialer opens websocket connections.
type WebsocketDialer struct {
	HTTPHeader http.Header
}

func (d WebsocketDialer) Dial(ctx context.Context, endpoint string) (Transport, error) {
	c, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPHeader: d.HTTPHeader,
	})
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(readLimit)
	return &websocketTransport{c: c}, nil
}

type websocketTransport struct {
	c *websocket.Conn
}

func (t *websocketTransport) Read(ctx context.Context) ([]byte, error) {
	_, b, err := t.c.Read(ctx)
	return b, err
}

func (t *websocketTransport) Write(ctx context.Context, frame []byte) error {
	return t.c.Write(ctx, websocket.MessageText, frame)
}

func (t *websocketTransport) Close() error {
	return t.c.Close(websocket.StatusNormalClosure, "")
}

// Package ws exposes an engine.Engine over a WebSocket: each
// connection sends {"user": "...", "message": "..."} frames and gets
// back {"reply": "..."} frames, one per request, using an
// upgrade-then-read-loop per connection.
package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	ilog "github.com/korea/kivescript/internal/log"
)

// Replier is the subset of engine.Engine a gateway needs.
type Replier interface {
	Reply(ctx context.Context, username, message string) (string, error)
}

// Gateway upgrades incoming HTTP connections to WebSocket and services
// chat frames against an engine.
type Gateway struct {
	Engine   Replier
	Upgrader websocket.Upgrader
}

// NewGateway returns a Gateway ready to be registered as an
// http.Handler.
func NewGateway(e Replier) *Gateway {
	return &Gateway{Engine: e}
}

type request struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

type response struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// ServeHTTP upgrades the connection and loops reading request frames
// until the client disconnects or ctx is canceled.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		ilog.Logf("ws: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			ilog.Logf("ws: read error: %v", err)
			return
		}

		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			g.write(conn, response{Error: "bad request: " + err.Error()})
			continue
		}

		reply, err := g.Engine.Reply(ctx, req.User, req.Message)
		if err != nil {
			g.write(conn, response{Error: err.Error()})
			continue
		}
		g.write(conn, response{Reply: reply})
	}
}

func (g *Gateway) write(conn *websocket.Conn, resp response) {
	js, err := json.Marshal(resp)
	if err != nil {
		ilog.Logf("ws: marshal error: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, js); err != nil {
		ilog.Logf("ws: write error: %v", err)
	}
}

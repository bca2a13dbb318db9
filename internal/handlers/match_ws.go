// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkarlsen/spireline/internal/auth"
	"github.com/mkarlsen/spireline/internal/engine"
	"github.com/mkarlsen/spireline/internal/middleware"
)

// wsFrame is the single message shape in both directions.
//
// Client -> server types: "action", "ack", "skip".
// Server -> client types: "state", "effect", "error".
type wsFrame struct {
	Type   string            `json:"type"`
	Action *engine.Action    `json:"action,omitempty"`
	Effect *engine.Effect    `json:"effect,omitempty"`
	State  *engine.GameState `json:"state,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// wsClient is one connected presentation client. Its ack channel completes
// the server-side presentation wait for the effect currently on screen; the
// engine's timeout is the backstop for a silent client. The channel is
// buffered so an ack landing just before the wait starts is not lost.
type wsClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	ack     chan struct{}
}

func (c *wsClient) send(ctx context.Context, frame wsFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// present is the adapter handler: show the effect, wait for the client's
// ack or for cancellation (skip/timeout).
func (c *wsClient) present(ctx context.Context, eff engine.Effect, _ engine.GameState) error {
	// An ack can only answer a frame already on the wire; anything buffered
	// before this effect's frame is stale.
	select {
	case <-c.ack:
	default:
	}
	if err := c.send(ctx, wsFrame{Type: "effect", Effect: &eff}); err != nil {
		return err
	}
	return c.awaitAck(ctx)
}

func (c *wsClient) awaitAck(ctx context.Context) error {
	select {
	case <-c.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliverAck completes the presentation wait in flight, if any. The one-slot
// buffer holds an ack that races ahead of the wait; further acks are stray
// and dropped.
func (c *wsClient) deliverAck() {
	select {
	case c.ack <- struct{}{}:
	default:
	}
}

// MatchWSHandler upgrades the connection for one match, authenticates the
// session token, wires the connection in as the match's presentation
// adapter, and runs the read loop.
func MatchWSHandler(logger *logrus.Logger, ms *MatchServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		matchIDStr, err := auth.VerifyMatchToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid or missing token", http.StatusUnauthorized)
			return
		}
		matchID, err := uuid.Parse(matchIDStr)
		if err != nil {
			http.Error(w, "invalid match id in token", http.StatusUnauthorized)
			return
		}
		lm, ok := ms.getMatch(matchID)
		if !ok {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"match"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for match %s: %v", matchID, err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "handler exit")
		middleware.LogMatchConnect(logger, r.RemoteAddr, matchID.String())

		client := &wsClient{
			conn: conn,
			ack:  make(chan struct{}, 1),
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Every effect kind forwards through the same presentation wait.
		lm.adapter.RegisterAll(client.present)

		// Committed state after each action's run.
		unsubSettled := lm.session.OnSettled(func(st engine.GameState) {
			if err := client.send(ctx, wsFrame{Type: "state", State: &st}); err != nil {
				logger.Warnf("failed to push settled state for match %s: %v", matchID, err)
			}
		})

		// An action can pass enqueue validation and still fail its run when
		// earlier queued actions moved the state out from under it.
		unsubFailed := lm.session.OnFailed(func(_ engine.Action, err error) {
			if sendErr := client.send(ctx, wsFrame{Type: "error", Error: err.Error()}); sendErr != nil {
				logger.Warnf("failed to push run failure for match %s: %v", matchID, sendErr)
			}
		})

		// Initial snapshot on connect.
		snapshot := lm.session.State()
		if err := client.send(ctx, wsFrame{Type: "state", State: &snapshot}); err != nil {
			logger.Warnf("failed to send initial state for match %s: %v", matchID, err)
			return
		}

		readErr := readMatchMessages(ctx, client, lm, logger)
		middleware.LogMatchDisconnect(logger, r.RemoteAddr, matchID.String(), readErr)

		// Detach presentation and pushes: the session keeps running headless.
		lm.adapter.RegisterAll(nil)
		unsubSettled()
		unsubFailed()
	}
}

// readMatchMessages drains client frames until the connection drops.
func readMatchMessages(ctx context.Context, client *wsClient, lm *liveMatch, logger *logrus.Logger) error {
	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warnf("invalid frame from client: %v", err)
			continue
		}

		switch frame.Type {
		case "action":
			if frame.Action == nil {
				client.send(ctx, wsFrame{Type: "error", Error: "action frame missing action"})
				continue
			}
			if err := lm.session.Enqueue(*frame.Action); err != nil {
				// Resolver-level rejection: report, nothing ran.
				client.send(ctx, wsFrame{Type: "error", Error: err.Error()})
			}

		case "ack":
			client.deliverAck()

		case "skip":
			lm.session.Skip()

		default:
			client.send(ctx, wsFrame{Type: "error", Error: "unknown frame type " + frame.Type})
		}
	}
}

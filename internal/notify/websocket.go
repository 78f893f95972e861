package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/session"

	"github.com/gorilla/websocket"
)

// SessionReader supplies the bearer token for the socket handshake.
type SessionReader interface {
	GetSession() *session.Session
}

// WebSocketSource is the foreground channel: a socket the backend pushes
// {title, body} frames on while the operator is signed in.
type WebSocketSource struct {
	URL      string
	Sessions SessionReader
	Dialer   *websocket.Dialer
}

var ErrNotSignedIn = errors.New("not signed in")

func (w *WebSocketSource) Name() string { return "websocket" }

func (w *WebSocketSource) Run(ctx context.Context, sink *Sink) error {
	sess := w.Sessions.GetSession()
	if !sess.IsAuthenticated() {
		return ErrNotSignedIn
	}
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.AccessToken)

	conn, resp, err := dialer.DialContext(ctx, w.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		sink.Push(w.Name(), n)
	}
}

package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/session"
	"fleetconsole/internal/storage"

	"github.com/gorilla/websocket"
)

type staticSessions struct{ s *session.Session }

func (s staticSessions) GetSession() *session.Session { return s.s }

func signedIn(refresh string) *session.Session {
	return &session.Session{
		UserID: "3", Name: "Ops", Email: "ops@fleet.test", Role: session.RoleDispatcher,
		AccessToken: "access-ws", RefreshToken: refresh,
	}
}

func TestSinkKeepsNewestFirstAndBounded(t *testing.T) {
	sink := NewSink(2)
	sink.Push("test", models.Notification{Title: "a"})
	sink.Push("test", models.Notification{Title: "b"})
	sink.Push("test", models.Notification{Title: "c"})
	sink.Push("test", models.Notification{})

	got := sink.Recent()
	if len(got) != 2 || got[0].Title != "c" || got[1].Title != "b" {
		t.Fatalf("Recent = %#v", got)
	}
}

func TestWebSocketSourceDeliversFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	authCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCh <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(models.Notification{Title: "New request", Body: "#12 needs approval"})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer srv.Close()

	src := &WebSocketSource{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		Sessions: staticSessions{signedIn("r")},
	}
	sink := NewSink(10)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := src.Run(ctx, sink); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if gotAuth := <-authCh; gotAuth != "Bearer access-ws" {
		t.Fatalf("handshake Authorization = %q", gotAuth)
	}
	got := sink.Recent()
	if len(got) != 1 || got[0].Body != "#12 needs approval" || got[0].Source != "websocket" {
		t.Fatalf("Recent = %#v", got)
	}
}

func TestWebSocketSourceRequiresSession(t *testing.T) {
	src := &WebSocketSource{URL: "ws://127.0.0.1:1", Sessions: staticSessions{nil}}
	if err := src.Run(context.Background(), NewSink(1)); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

type fakeAck struct{ acked, nacked int }

func (f *fakeAck) Ack(bool) error       { f.acked++; return nil }
func (f *fakeAck) Nack(bool, bool) error { f.nacked++; return nil }

func TestHandleDeliveryAcksValidAndDropsMalformed(t *testing.T) {
	sink := NewSink(5)
	ack := &fakeAck{}
	handleDelivery([]byte(`{"title":"Trip done","body":"route r1"}`), ack, sink, "amqp")
	handleDelivery([]byte(`{broken`), ack, sink, "amqp")

	if ack.acked != 1 || ack.nacked != 1 {
		t.Fatalf("acked=%d nacked=%d", ack.acked, ack.nacked)
	}
	if got := sink.Recent(); len(got) != 1 || got[0].Title != "Trip done" {
		t.Fatalf("Recent = %#v", got)
	}
}

type countingAPI struct{ tokens []string }

func (c *countingAPI) RegisterDevice(_ context.Context, token string) error {
	c.tokens = append(c.tokens, token)
	return nil
}

func TestRegistrarRegistersOncePerSession(t *testing.T) {
	ctx := context.Background()
	api := &countingAPI{}
	reg := &Registrar{API: api, Store: storage.NewMemoryStore()}

	first := signedIn("refresh-a")
	if err := reg.EnsureRegistered(ctx, first); err != nil {
		t.Fatalf("EnsureRegistered: %v", err)
	}
	_ = reg.EnsureRegistered(ctx, first)
	if len(api.tokens) != 1 {
		t.Fatalf("expected one registration, got %d", len(api.tokens))
	}

	_ = reg.EnsureRegistered(ctx, signedIn("refresh-b"))
	if len(api.tokens) != 2 || api.tokens[0] != api.tokens[1] {
		t.Fatalf("new session should re-register the same device token: %#v", api.tokens)
	}

	reg.Forget()
	_ = reg.EnsureRegistered(ctx, signedIn("refresh-b"))
	if len(api.tokens) != 3 {
		t.Fatalf("Forget should allow re-registration")
	}
}

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nkazantsev/streetdogs/game/app"
	"github.com/nkazantsev/streetdogs/game/session"
)

type fakeSource struct {
	snap *app.StateSnapshot
	err  error
}

func (f *fakeSource) State(token string) (*app.StateSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func newTestHub(t *testing.T, src StateSource) (*Hub, *session.Strand) {
	t.Helper()
	strand := session.NewStrand()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go strand.Run(ctx)

	hub := NewHub(src, strand)
	go hub.Run()
	return hub, strand
}

func TestOnTickPushesSnapshotToClient(t *testing.T) {
	src := &fakeSource{snap: &app.StateSnapshot{Players: map[uint64]app.PlayerState{1: {}}}}
	hub, _ := newTestHub(t, src)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "tok")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client before ticking.
	time.Sleep(20 * time.Millisecond)
	hub.OnTick(100)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if !strings.Contains(string(data), `"event":"tick"`) {
		t.Errorf("message = %s, want it to contain the tick event", data)
	}
}

func TestOnTickDropsClientWithDeadToken(t *testing.T) {
	src := &fakeSource{err: errors.New("unknown token")}
	hub, _ := newTestHub(t, src)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "tok")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	hub.OnTick(100)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after a dead-token tick, read succeeded")
	}
}

package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lankasafe-hq/db"
	"lankasafe-hq/types"
)

func seeded() *db.MemoryStore {
	m := db.NewMemoryStore()
	m.Put(db.IncidentsCollection, "i1", map[string]any{"timestamp": int64(10), "severity": int64(5), "latitude": 6.9, "longitude": 79.85})
	m.Put(db.AidRequestsCollection, "a1", map[string]any{db.CreatedAtField: int64(10), "aid_types": `["Food"]`})
	m.Put(db.CampsCollection, "c1", map[string]any{db.CreatedAtField: int64(10), "capacity": int64(5)})
	return m
}

func TestFeedReadyAfterAllCollections(t *testing.T) {
	m := seeded()
	f := NewFeed(m, nil, zap.NewNop())
	f.Start(context.Background())
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if !f.Ready() {
		t.Fatal("feed should be ready")
	}
	if len(f.Incidents()) != 1 || f.Incidents()[0].ActionStatus != types.Pending {
		t.Fatalf("incidents = %+v", f.Incidents())
	}
	if len(f.Volunteers()) != 0 {
		t.Fatalf("volunteers = %+v", f.Volunteers())
	}
}

func TestFeedReplacesSnapshotOnWrite(t *testing.T) {
	m := seeded()
	f := NewFeed(m, nil, zap.NewNop())
	f.Start(context.Background())
	defer f.Close()

	if err := m.UpdatePartial(context.Background(), db.IncidentsCollection, "i1", map[string]any{"actionStatus": "completed"}); err != nil {
		t.Fatal(err)
	}
	inc, ok := f.Incident("i1")
	if !ok || inc.ActionStatus != types.Completed {
		t.Fatalf("incident = %+v, %v", inc, ok)
	}
}

func TestFeedSubscriptionFailure(t *testing.T) {
	m := seeded()
	m.FailSubscribe(db.CampsCollection, errors.New("missing permissions"))
	f := NewFeed(m, nil, zap.NewNop())
	f.Start(context.Background())
	defer f.Close()

	err := f.WaitReady(context.Background())
	var se *SubscriptionError
	if !errors.As(err, &se) || se.Collection != db.CampsCollection {
		t.Fatalf("err = %v, want SubscriptionError for camps", err)
	}
	if f.Ready() {
		t.Fatal("failed feed must not report ready")
	}
}

func TestFeedWaitReadyHonoursContext(t *testing.T) {
	f := NewFeed(db.NewMemoryStore(), nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.WaitReady(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFeedCloseStopsUpdates(t *testing.T) {
	m := seeded()
	f := NewFeed(m, nil, zap.NewNop())
	f.Start(context.Background())
	f.Close()

	m.Put(db.IncidentsCollection, "i2", map[string]any{"timestamp": int64(20)})
	if n := len(f.Incidents()); n != 1 {
		t.Fatalf("incidents after close = %d, want 1", n)
	}
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub := NewHub("", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	m := seeded()
	f := NewFeed(m, hub, zap.NewNop())

	// the client registers asynchronously; keep publishing until one arrives
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make(chan Event, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			close(got)
			return
		}
		var e Event
		json.Unmarshal(data, &e)
		got <- e
	}()
	f.Start(context.Background())
	defer f.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-got:
			if !ok {
				t.Fatal("connection closed before an event arrived")
			}
			if e.Type != "snapshot" || e.Collection == "" {
				t.Fatalf("event = %+v", e)
			}
			return
		case <-deadline:
			t.Fatal("no event received")
		case <-time.After(20 * time.Millisecond):
			m.Put(db.IncidentsCollection, "tick", map[string]any{"timestamp": time.Now().UnixMilli()})
		}
	}
}

func TestHubRefusesConnectionsAfterStop(t *testing.T) {
	hub := NewHub("", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	served := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
		close(served)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeWS blocked on a stopped hub")
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
}

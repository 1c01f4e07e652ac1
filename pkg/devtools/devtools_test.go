package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beacon-dev/beacon/pkg/beacon"
)

func TestServerTracksLiveSignals(t *testing.T) {
	srv := New()

	a := beacon.New(0, beacon.WithName("cart"), beacon.WithObserver(srv))
	b := beacon.New(0, beacon.WithName("session"), beacon.WithObserver(srv))

	signals := srv.Signals()
	if len(signals) != 2 {
		t.Fatalf("expected 2 live signals, got %d", len(signals))
	}

	a.MarkBusy()
	found := false
	for _, info := range srv.Signals() {
		if info.ID == a.ID() {
			found = true
			if info.Status != "busy" {
				t.Errorf("expected busy, got %q", info.Status)
			}
		}
	}
	if !found {
		t.Fatal("expected signal a in the live table")
	}

	a.Dispose()
	b.Dispose()
	if got := len(srv.Signals()); got != 0 {
		t.Errorf("expected 0 live signals after dispose, got %d", got)
	}
}

func TestServerRecordsHistory(t *testing.T) {
	srv := New()

	s := beacon.New(0, beacon.WithName("orders"), beacon.WithObserver(srv))
	s.MarkBusy()
	s.MarkSuccess()
	s.Dispose()

	history := srv.History()
	// created + 2 status + 2 notified + disposed
	if len(history) != 6 {
		t.Fatalf("expected 6 events, got %d: %+v", len(history), history)
	}
	if history[0].Type != EventCreated {
		t.Errorf("expected created first, got %s", history[0].Type)
	}
	if last := history[len(history)-1]; last.Type != EventDisposed {
		t.Errorf("expected disposed last, got %s", last.Type)
	}
}

func TestServerHistoryRingDropsOldest(t *testing.T) {
	srv := New(WithHistorySize(3))

	s := beacon.New(0, beacon.WithObserver(srv))
	s.MarkBusy()
	s.MarkSuccess()
	s.MarkBusy()
	s.MarkSuccess()

	history := srv.History()
	if len(history) != 3 {
		t.Fatalf("expected ring of 3, got %d", len(history))
	}
	if history[0].Type == EventCreated {
		t.Error("expected the oldest events to be evicted")
	}
}

func TestServerOperationEvent(t *testing.T) {
	srv := New()

	s := beacon.New(0, beacon.WithObserver(srv))
	_ = s.Run(context.Background(), func(context.Context) error { return nil })

	var op *Event
	for _, ev := range srv.History() {
		if ev.Type == EventOperation {
			op = &ev
			break
		}
	}
	if op == nil {
		t.Fatal("expected an operation event")
	}
	if op.Status != "success" {
		t.Errorf("expected success, got %q", op.Status)
	}
}

func TestSignalsEndpoint(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	s := beacon.New(0, beacon.WithName("cart"), beacon.WithObserver(srv))
	defer s.Dispose()

	resp, err := http.Get(ts.URL + "/signals")
	if err != nil {
		t.Fatalf("GET /signals: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var signals []SignalInfo
	if err := json.NewDecoder(resp.Body).Decode(&signals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(signals) != 1 || signals[0].Name != "cart" {
		t.Errorf("expected [cart], got %+v", signals)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	s := beacon.New(0, beacon.WithObserver(srv))
	s.MarkBusy()

	resp, err := http.Get(ts.URL + "/history")
	if err != nil {
		t.Fatalf("GET /history: %v", err)
	}
	defer resp.Body.Close()

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}
}

func TestHealthzEndpoint(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The read loop registers the client before the first ReadMessage,
	// but give the handler goroutine a moment to run.
	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.ClientCount() != 1 {
		t.Fatal("expected 1 connected client")
	}

	s := beacon.New(0, beacon.WithName("live"), beacon.WithObserver(srv))
	defer s.Dispose()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != EventCreated || ev.SignalName != "live" {
		t.Errorf("expected created event for live, got %+v", ev)
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	srv.Close()
	if got := srv.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after Close, got %d", got)
	}
}

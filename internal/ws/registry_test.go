package ws

import (
	"sync"
	"testing"
)

type fakeConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestBindFirstConnectionWins(t *testing.T) {
	reg := NewRegistry()
	h1 := &fakeConn{}
	h2 := &fakeConn{}

	if !reg.Bind("U1", h1) {
		t.Fatal("first bind must succeed")
	}
	if reg.Bind("U1", h2) {
		t.Fatal("duplicate join must be a no-op")
	}

	conn, ok := reg.Lookup("U1")
	if !ok || conn != Conn(h1) {
		t.Fatal("registry must stay bound to the first handle")
	}
}

func TestUnbindMatchesByHandle(t *testing.T) {
	reg := NewRegistry()
	stale := &fakeConn{}
	fresh := &fakeConn{}

	reg.Bind("U1", stale)
	reg.Unbind(stale)
	if _, ok := reg.Lookup("U1"); ok {
		t.Fatal("expected no handle bound after unbind")
	}

	// Reconnect, then let the stale handle disconnect late. The newer binding
	// must survive.
	reg.Bind("U1", fresh)
	reg.Unbind(stale)
	conn, ok := reg.Lookup("U1")
	if !ok || conn != Conn(fresh) {
		t.Fatal("stale disconnect must not erase the fresh binding")
	}
}

func TestUnbindUnknownHandleIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Unbind(&fakeConn{})
	reg.Unbind(nil)
}

func TestRosterBroadcastOnBind(t *testing.T) {
	reg := NewRegistry()
	h1 := &fakeConn{}
	reg.Bind("U1", h1)
	if h1.sentCount() != 1 {
		t.Fatalf("expected one roster broadcast after bind, got %d", h1.sentCount())
	}

	h2 := &fakeConn{}
	reg.Bind("U2", h2)
	if h1.sentCount() != 2 {
		t.Fatalf("expected roster rebroadcast to existing conns, got %d", h1.sentCount())
	}

	roster := reg.Roster()
	if len(roster) != 2 || roster[0] != "U1" || roster[1] != "U2" {
		t.Fatalf("unexpected roster: %v", roster)
	}
}

func TestRosterBroadcastOnUnbind(t *testing.T) {
	reg := NewRegistry()
	h1 := &fakeConn{}
	h2 := &fakeConn{}
	reg.Bind("U1", h1)
	reg.Bind("U2", h2)

	before := h2.sentCount()
	reg.Unbind(h1)
	if h2.sentCount() != before+1 {
		t.Fatalf("expected roster broadcast after unbind")
	}

	// Unknown handle: silent no-op, no broadcast.
	before = h2.sentCount()
	reg.Unbind(h1)
	if h2.sentCount() != before {
		t.Fatalf("no-op unbind must not broadcast")
	}
}

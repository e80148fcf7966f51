package status

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m Message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return m
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Status("before connect", INFO, 0)

	conn := dial(t, srv)
	defer conn.Close()
	if m := readMessage(t, conn); m.Message != "before connect" || m.Type != INFO {
		t.Errorf("last message %+v", m)
	}

	// wait for registration of the second client before broadcasting
	second := dial(t, srv)
	defer second.Close()
	readMessage(t, second)

	h.Status("export body.mdl", PROGRESS, 0.5)
	for _, c := range []*websocket.Conn{conn, second} {
		m := readMessage(t, c)
		if m.Message != "export body.mdl" || m.Type != PROGRESS || m.Progress != 0.5 {
			t.Errorf("message %+v", m)
		}
	}
}

func TestStatusSanitizesProgress(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	var zero float32
	h.Status("nan", PROGRESS, zero/zero)
	conn := dial(t, srv)
	defer conn.Close()
	if m := readMessage(t, conn); m.Progress != 0 {
		t.Errorf("progress %v", m.Progress)
	}
}

package events

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var e struct {
		ID   string          `json:"id"`
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &e))
	require.NotEmpty(t, e.ID)
	return Event{ID: e.ID, Type: e.Type, Data: e.Data}
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub := NewHub(time.Hour)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Stop)

	first := dial(t, srv)
	second := dial(t, srv)
	require.Equal(t, EventConnected, readEvent(t, first).Type)
	require.Equal(t, EventConnected, readEvent(t, second).Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 5*time.Second, 10*time.Millisecond)

	hub.Publish(EventStudentAdded, map[string]any{"id": 7})

	for _, conn := range []*websocket.Conn{first, second} {
		e := readEvent(t, conn)
		require.Equal(t, EventStudentAdded, e.Type)
		require.JSONEq(t, `{"id":7}`, string(e.Data.(json.RawMessage)))
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(time.Hour)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Stop)

	conn := dial(t, srv)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	// Publishing with nobody listening must not block.
	hub.Publish(EventMarkAdded, nil)
}

func TestHubSendsHeartbeats(t *testing.T) {
	hub := NewHub(50 * time.Millisecond)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Stop)

	conn := dial(t, srv)
	readEvent(t, conn)
	require.Equal(t, EventHeartbeat, readEvent(t, conn).Type)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(time.Hour)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.Stop()
	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Zero(t, hub.ClientCount())
}

func TestHubStopWaitsForLoop(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	for range 50 {
		hub := NewHub(time.Hour)
		hub.Stop()

		select {
		case <-hub.stopped:
		default:
			t.Fatal("hub loop still running after Stop")
		}
		// run logs on exit; this write races with it unless Stop waited.
		log.Logger = zerolog.New(io.Discard)
	}
}
